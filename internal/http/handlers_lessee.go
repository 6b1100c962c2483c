package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"fleetlease/internal/core"
	obs "fleetlease/internal/observability/metrics"
)

// handleRegisterLessee processes the registration form: create the lessee and
// flip the chosen vehicle to leased. Responds with an HTML fragment for the
// form's result slot.
func (s *Server) handleRegisterLessee(w http.ResponseWriter, r *http.Request) {
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

	form := core.RegistrationForm{
		Name:      sanitizeInput(r.Form.Get("name")),
		Email:     sanitizeInput(r.Form.Get("email")),
		Phone:     sanitizeInput(r.Form.Get("phone")),
		VehicleID: sanitizeInput(r.Form.Get("vehicle_id")),
	}

	lessee, err := s.registrar.RegisterLessee(r.Context(), form)
	if err != nil {
		obs.ObserveRegistration("error")
		s.writeRegistrationError(w, r, err)
		return
	}
	obs.ObserveRegistration("ok")

	s.invalidateDashboard()
	if s.publisher != nil {
		if perr := s.publisher.PublishLesseeRegistered(r.Context(), lessee.ID, lessee.VehicleID); perr != nil {
			// The registration already happened; a lost event only delays reminders.
			slog.ErrorContext(r.Context(), "Publish lessee registered failed", "error", perr, "lessee_id", lessee.ID)
		}
	}

	w.Header().Set("HX-Trigger", `{"lessee:registered": {"lessee_id": "`+lessee.ID+`", "vehicle_id": "`+lessee.VehicleID+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Registered ` +
		template.HTMLEscapeString(lessee.Name) +
		` (` + template.HTMLEscapeString(lessee.ID) + `) to vehicle ` +
		template.HTMLEscapeString(lessee.VehicleID) + `</div>`))
}

func (s *Server) writeRegistrationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrMissingField):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">All fields are required</div>`))
	case errors.Is(err, core.ErrUnknownVehicle):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Unknown vehicle</div>`))
	case errors.Is(err, core.ErrVehicleAlreadyLeased):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Vehicle is already leased</div>`))
	default:
		slog.ErrorContext(r.Context(), "Register lessee error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Registration failed</div>`))
	}
}
