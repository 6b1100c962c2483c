package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"fleetlease/internal/core"
	obs "fleetlease/internal/observability/metrics"
)

// handleRecordPayment appends a payment for an existing lessee. The amount
// arrives as a decimal string and the date as YYYY-MM-DD.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	lesseeID := sanitizeInput(r.Form.Get("lessee_id"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	dateStr := strings.TrimSpace(r.Form.Get("date"))

	// Blank fields are a missing-field error, not a parse failure.
	if lesseeID == "" || amountStr == "" || dateStr == "" {
		obs.ObservePayment("error")
		s.writePaymentError(w, r, core.ErrMissingField)
		return
	}

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		obs.ObservePayment("error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount</div>`))
		return
	}

	date, err := parseDate(dateStr)
	if err != nil {
		obs.ObservePayment("error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid date</div>`))
		return
	}

	form := core.PaymentForm{
		LesseeID: lesseeID,
		Amount:   core.Money{Cents: cents},
		Date:     date,
	}

	payment, err := s.payments.RecordPayment(r.Context(), form)
	if err != nil {
		obs.ObservePayment("error")
		s.writePaymentError(w, r, err)
		return
	}
	obs.ObservePayment("ok")

	s.invalidateDashboard()
	if s.publisher != nil {
		if perr := s.publisher.PublishPaymentRecorded(r.Context(), payment.ID, payment.LesseeID, payment.Amount.Cents); perr != nil {
			slog.ErrorContext(r.Context(), "Publish payment recorded failed", "error", perr, "payment_id", payment.ID)
		}
	}

	w.Header().Set("HX-Trigger", `{"payment:recorded": {"payment_id": "`+payment.ID+`", "lessee_id": "`+payment.LesseeID+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Payment ` +
		template.HTMLEscapeString(payment.ID) + ` recorded: ` +
		template.HTMLEscapeString(formatDollars(payment.Amount.Cents)) + ` for ` +
		template.HTMLEscapeString(payment.LesseeID) + `</div>`))
}

func (s *Server) writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrMissingField):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">All fields are required</div>`))
	case errors.Is(err, core.ErrUnknownLessee):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Unknown lessee</div>`))
	case errors.Is(err, core.ErrInvalidAmount):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount</div>`))
	case errors.Is(err, core.ErrInvalidDate):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid date</div>`))
	default:
		slog.ErrorContext(r.Context(), "Record payment error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Recording failed</div>`))
	}
}
