package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2024, 1, 15), true},
		{NewDate(2023, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -500}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestIDSequences(t *testing.T) {
	if got := VehicleID(1); got != "V1" {
		t.Fatalf("VehicleID(1) = %q", got)
	}
	if got := LesseeID(21); got != "L21" {
		t.Fatalf("LesseeID(21) = %q", got)
	}
	if got := PaymentID(107); got != "P107" {
		t.Fatalf("PaymentID(107) = %q", got)
	}
}

func TestRegistrationFormValidate(t *testing.T) {
	good := RegistrationForm{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0101", VehicleID: "V13"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []RegistrationForm{
		{Email: "a@b.c", Phone: "1", VehicleID: "V1"},
		{Name: "a", Phone: "1", VehicleID: "V1"},
		{Name: "a", Email: "a@b.c", VehicleID: "V1"},
		{Name: "a", Email: "a@b.c", Phone: "1"},
		{Name: "   ", Email: "a@b.c", Phone: "1", VehicleID: "V1"}, // whitespace only
	}
	for i, f := range bads {
		if err := f.Validate(); !errors.Is(err, ErrMissingField) {
			t.Fatalf("case %d expected ErrMissingField, got %v", i, err)
		}
	}
}

func TestPaymentFormValidate(t *testing.T) {
	good := PaymentForm{LesseeID: "L1", Amount: Money{Cents: 50000}, Date: NewDate(2024, 1, 15)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (PaymentForm{Amount: Money{Cents: 1}, Date: NewDate(2024, 1, 1)}).Validate(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing lessee: got %v", err)
	}
	if err := (PaymentForm{LesseeID: "L1", Date: NewDate(2024, 1, 1)}).Validate(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing amount: got %v", err)
	}
	if err := (PaymentForm{LesseeID: "L1", Amount: Money{Cents: 1}}).Validate(); !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing date: got %v", err)
	}
	if err := (PaymentForm{LesseeID: "L1", Amount: Money{Cents: -5}, Date: NewDate(2024, 1, 1)}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: got %v", err)
	}
}

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"500", 50000, true},
		{"450.00", 45000, true},
		{"450,00", 45000, true},
		{"12.344", 1234, true}, // third digit below 5 truncates
		{"12.345", 1235, true}, // rounds half-up
		{"12.346", 1235, true}, // rounds up
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDatasetCheckConsistency(t *testing.T) {
	good := Dataset{
		Vehicles: []Vehicle{
			{ID: "V1", Make: "Toyota", Model: "Camry", LeaseAmount: Money{Cents: 50000}, Leased: true, LesseeID: "L1"},
			{ID: "V2", Make: "Honda", Model: "Civic", LeaseAmount: Money{Cents: 45000}},
		},
		Lessees:  []Lessee{{ID: "L1", Name: "Ada", VehicleID: "V1", StartDate: NewDate(2024, 1, 1)}},
		Payments: []Payment{{ID: "P1", LesseeID: "L1", Amount: Money{Cents: 50000}, Date: NewDate(2024, 2, 1), Status: StatusCompleted}},
	}
	if err := good.CheckConsistency(); err != nil {
		t.Fatalf("expected consistent dataset, got %v", err)
	}

	flagOff := good
	flagOff.Vehicles = []Vehicle{{ID: "V1", Leased: true}}
	if err := flagOff.CheckConsistency(); err == nil {
		t.Fatalf("expected error for leased vehicle without lessee")
	}

	dangling := good
	dangling.Lessees = []Lessee{{ID: "L1", VehicleID: "V99"}}
	if err := dangling.CheckConsistency(); err == nil {
		t.Fatalf("expected error for dangling vehicle reference")
	}
}
