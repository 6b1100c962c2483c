package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	m, err := s.dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard load failed", "error", err)
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}

	// Available vehicles feed the registration form's select.
	data := struct {
		Today          string
		VehicleCount   int
		LeasedCount    int
		AvailableCount int
		LesseeCount    int
		Available      []vehicleRow
		Lessees        []lesseeOption
	}{
		Today:          time.Now().Format("2006-01-02"),
		VehicleCount:   m.VehicleCount,
		LeasedCount:    m.LeasedCount,
		AvailableCount: m.AvailableCount,
		LesseeCount:    m.LesseeCount,
	}

	snapshot, err := s.snapshots.Snapshot(r.Context())
	if err == nil {
		for _, v := range snapshot.Vehicles {
			if v.Leased {
				continue
			}
			data.Available = append(data.Available, vehicleRow{
				ID:          v.ID,
				Description: vehicleLabel(v.Year, v.Make, v.Model),
				LeaseAmount: formatDollars(v.LeaseAmount.Cents),
			})
		}
		for _, l := range snapshot.Lessees {
			data.Lessees = append(data.Lessees, lesseeOption{ID: l.ID, Name: l.Name})
		}
	} else {
		slog.ErrorContext(r.Context(), "Snapshot load failed", "error", err)
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type vehicleRow struct {
	ID          string
	Description string
	LeaseAmount string
	Category    string
	Status      string
	LesseeName  string
}

type lesseeOption struct {
	ID   string
	Name string
}

func vehicleLabel(year int, mk, model string) string {
	return strconv.Itoa(year) + " " + mk + " " + model
}

// handleOverview renders the headline numbers partial.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	m, err := s.dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview error", "error", err)
		_, _ = w.Write([]byte(`<section id="overview" class="overview"><div class="placeholder">Error loading overview</div></section>`))
		return
	}

	collectionRate := 0
	if m.TotalExpected.Cents > 0 {
		collectionRate = int((m.TotalCollected.Cents*100 + m.TotalExpected.Cents/2) / m.TotalExpected.Cents)
	}

	data := struct {
		TotalExpected  string
		TotalCollected string
		CollectionRate int
		VehicleCount   int
		LeasedCount    int
		AvailableCount int
		LesseeCount    int
		OverdueCount   int
	}{
		TotalExpected:  formatDollars(m.TotalExpected.Cents),
		TotalCollected: formatDollars(m.TotalCollected.Cents),
		CollectionRate: collectionRate,
		VehicleCount:   m.VehicleCount,
		LeasedCount:    m.LeasedCount,
		AvailableCount: m.AvailableCount,
		LesseeCount:    m.LesseeCount,
		OverdueCount:   len(m.Overdue),
	}

	s.renderPartial(w, r, "overview.html", data)
}

// handleTrend renders the six-month expected vs collected chart partial.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	m, err := s.dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Trend error", "error", err)
		_, _ = w.Write([]byte(`<section id="trend" class="trend"><div class="placeholder">Error loading trend</div></section>`))
		return
	}

	// Scale bars against the largest value in the window.
	var maxCents int64
	for _, p := range m.Trend {
		if p.Expected.Cents > maxCents {
			maxCents = p.Expected.Cents
		}
		if p.Collected.Cents > maxCents {
			maxCents = p.Collected.Cents
		}
	}

	type row struct {
		Label          string
		Expected       string
		Collected      string
		ExpectedWidth  int
		CollectedWidth int
	}
	data := struct{ Rows []row }{}
	for _, p := range m.Trend {
		data.Rows = append(data.Rows, row{
			Label:          p.Label,
			Expected:       formatDollars(p.Expected.Cents),
			Collected:      formatDollars(p.Collected.Cents),
			ExpectedWidth:  barWidth(p.Expected.Cents, maxCents),
			CollectedWidth: barWidth(p.Collected.Cents, maxCents),
		})
	}

	s.renderPartial(w, r, "trend.html", data)
}

func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width > 0 && width < 2 { // ensure visibility for very small values
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// handleOverdue renders the overdue lessee list partial, most overdue first.
func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	m, err := s.dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Overdue error", "error", err)
		_, _ = w.Write([]byte(`<section id="overdue" class="overdue"><div class="placeholder">Error loading overdue list</div></section>`))
		return
	}

	type row struct {
		LesseeID    string
		Name        string
		Email       string
		Phone       string
		Vehicle     string
		LastPayment string
		DaysSince   int
	}
	data := struct{ Rows []row }{}
	for _, o := range m.Overdue {
		last := "never"
		if !o.LastPayment.IsEmpty() {
			last = o.LastPayment.Format("2006-01-02")
		}
		data.Rows = append(data.Rows, row{
			LesseeID:    o.Lessee.ID,
			Name:        o.Lessee.Name,
			Email:       o.Lessee.Email,
			Phone:       o.Lessee.Phone,
			Vehicle:     vehicleLabel(o.Vehicle.Year, o.Vehicle.Make, o.Vehicle.Model),
			LastPayment: last,
			DaysSince:   o.DaysSince,
		})
	}

	s.renderPartial(w, r, "overdue.html", data)
}

// handleCategories renders the lease amount category split partial.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	m, err := s.dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Categories error", "error", err)
		_, _ = w.Write([]byte(`<section id="categories" class="categories"><div class="placeholder">Error loading categories</div></section>`))
		return
	}

	total := m.Categories.Economy + m.Categories.MidRange + m.Categories.Premium
	data := struct {
		Economy, MidRange, Premium          int
		EconomyPct, MidRangePct, PremiumPct int
	}{
		Economy:     m.Categories.Economy,
		MidRange:    m.Categories.MidRange,
		Premium:     m.Categories.Premium,
		EconomyPct:  percentOf(m.Categories.Economy, total),
		MidRangePct: percentOf(m.Categories.MidRange, total),
		PremiumPct:  percentOf(m.Categories.Premium, total),
	}

	s.renderPartial(w, r, "categories.html", data)
}

// handlePaymentStatus renders the on-time / late / missed split partial.
func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	m, err := s.dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Payment status error", "error", err)
		_, _ = w.Write([]byte(`<section id="payment-status" class="payment-status"><div class="placeholder">Error loading payment status</div></section>`))
		return
	}

	total := m.PaymentStatus.OnTime + m.PaymentStatus.Late + m.PaymentStatus.Missed
	data := struct {
		OnTime, Late, Missed          int
		OnTimePct, LatePct, MissedPct int
	}{
		OnTime:    m.PaymentStatus.OnTime,
		Late:      m.PaymentStatus.Late,
		Missed:    m.PaymentStatus.Missed,
		OnTimePct: percentOf(m.PaymentStatus.OnTime, total),
		LatePct:   percentOf(m.PaymentStatus.Late, total),
		MissedPct: percentOf(m.PaymentStatus.Missed, total),
	}

	s.renderPartial(w, r, "payment_status.html", data)
}

// handleFleet renders the vehicle table partial, optionally narrowed by
// ?status=leased or ?status=available.
func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	snapshot, err := s.snapshots.Snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Fleet error", "error", err)
		_, _ = w.Write([]byte(`<section id="fleet" class="fleet"><div class="placeholder">Error loading fleet</div></section>`))
		return
	}

	lesseeByID := make(map[string]string, len(snapshot.Lessees))
	for _, l := range snapshot.Lessees {
		lesseeByID[l.ID] = l.Name
	}

	filter := r.URL.Query().Get("status")
	data := struct {
		Filter string
		Rows   []vehicleRow
	}{Filter: filter}
	for _, v := range snapshot.Vehicles {
		if filter == "leased" && !v.Leased {
			continue
		}
		if filter == "available" && v.Leased {
			continue
		}
		status := "Available"
		if v.Leased {
			status = "Leased"
		}
		data.Rows = append(data.Rows, vehicleRow{
			ID:          v.ID,
			Description: vehicleLabel(v.Year, v.Make, v.Model),
			LeaseAmount: formatDollars(v.LeaseAmount.Cents),
			Category:    categoryName(v.LeaseAmount.Cents),
			Status:      status,
			LesseeName:  lesseeByID[v.LesseeID],
		})
	}

	s.renderPartial(w, r, "fleet.html", data)
}

func categoryName(cents int64) string {
	switch {
	case cents < 600_00:
		return "Economy"
	case cents < 900_00:
		return "Mid-range"
	default:
		return "Premium"
	}
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">templates not loaded</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", name)
		_, _ = w.Write([]byte(`<div class="placeholder">Error rendering partial</div>`))
	}
}
