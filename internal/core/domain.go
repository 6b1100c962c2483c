package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// StatusCompleted is the only payment status in this model. Payments are an
// append-only log; nothing is ever updated or deleted once recorded.
const StatusCompleted = "completed"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Vehicle struct {
		ID          string
		Make        string
		Model       string
		Year        int
		Color       string
		LeaseAmount Money // monthly obligation while leased
		Leased      bool
		LesseeID    string // empty iff Leased is false
	}

	Lessee struct {
		ID        string
		Name      string
		Email     string
		Phone     string
		VehicleID string // empty when no vehicle is assigned
		StartDate Date
	}

	Payment struct {
		ID       string
		LesseeID string
		Amount   Money
		Date     Date
		Status   string
	}

	// Dataset is the full application state: the three collections every
	// derived metric is computed from.
	Dataset struct {
		Vehicles []Vehicle
		Lessees  []Lessee
		Payments []Payment
	}
)

var (
	ErrMissingField         = errors.New("missing required field")
	ErrUnknownVehicle       = errors.New("unknown vehicle")
	ErrVehicleAlreadyLeased = errors.New("vehicle already leased")
	ErrUnknownLessee        = errors.New("unknown lessee")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
)

// IDs are assigned monotonically from running collection lengths. Not unique
// across sessions, which is acceptable for the memory backend; the sqlite
// backend keeps counters in the database instead.

func VehicleID(n int) string { return "V" + strconv.Itoa(n) }
func LesseeID(n int) string  { return "L" + strconv.Itoa(n) }
func PaymentID(n int) string { return "P" + strconv.Itoa(n) }

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool { return d.IsZero() }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Make) == "" || strings.TrimSpace(v.Model) == "" {
		return ErrMissingField
	}
	if err := v.LeaseAmount.Validate(); err != nil {
		return err
	}
	if v.Leased != (v.LesseeID != "") {
		return errors.New("leased flag and lessee reference out of sync")
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.LesseeID) == "" {
		return ErrMissingField
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// RegistrationForm carries the four fields of the lessee registration form.
type RegistrationForm struct {
	Name      string
	Email     string
	Phone     string
	VehicleID string
}

func (f RegistrationForm) Validate() error {
	for _, v := range []string{f.Name, f.Email, f.Phone, f.VehicleID} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingField
		}
	}
	return nil
}

// PaymentForm carries the fields of the payment entry form.
type PaymentForm struct {
	LesseeID string
	Amount   Money
	Date     Date
}

func (f PaymentForm) Validate() error {
	if strings.TrimSpace(f.LesseeID) == "" {
		return ErrMissingField
	}
	if f.Amount.Cents == 0 {
		return ErrMissingField
	}
	if f.Date.IsEmpty() {
		return ErrMissingField
	}
	return f.Amount.Validate()
}

// CheckConsistency verifies the vehicle/lessee cross-reference invariant:
// a vehicle is leased iff it names a lessee, and every link is mutual.
func (d Dataset) CheckConsistency() error {
	lesseeByID := make(map[string]Lessee, len(d.Lessees))
	for _, l := range d.Lessees {
		lesseeByID[l.ID] = l
	}
	vehicleByID := make(map[string]Vehicle, len(d.Vehicles))
	for _, v := range d.Vehicles {
		vehicleByID[v.ID] = v
	}

	for _, v := range d.Vehicles {
		if v.Leased != (v.LesseeID != "") {
			return errors.New("vehicle " + v.ID + ": leased flag and lessee reference out of sync")
		}
		if v.LesseeID != "" {
			if _, ok := lesseeByID[v.LesseeID]; !ok {
				return errors.New("vehicle " + v.ID + ": dangling lessee reference " + v.LesseeID)
			}
		}
	}
	for _, l := range d.Lessees {
		if l.VehicleID == "" {
			continue
		}
		v, ok := vehicleByID[l.VehicleID]
		if !ok {
			return errors.New("lessee " + l.ID + ": dangling vehicle reference " + l.VehicleID)
		}
		if !v.Leased {
			return errors.New("lessee " + l.ID + ": referenced vehicle " + v.ID + " is not leased")
		}
		if v.LesseeID != l.ID {
			return errors.New("lessee " + l.ID + ": referenced vehicle " + v.ID + " names a different lessee")
		}
	}
	for _, p := range d.Payments {
		if _, ok := lesseeByID[p.LesseeID]; !ok {
			return errors.New("payment " + p.ID + ": dangling lessee reference " + p.LesseeID)
		}
	}
	return nil
}
