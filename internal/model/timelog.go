// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// TimeLogEntry is one row of an activity report as returned by the
// time-tracking API and posted back by the frontend.
type TimeLogEntry struct {
	Date           string `json:"date"`
	UserName       string `json:"userName"`
	ClientName     string `json:"clientName"`
	ProjectName    string `json:"projectName"`
	TaskName       string `json:"taskName,omitempty"`
	StartFinish    string `json:"startFinish"`
	Note           string `json:"note,omitempty"`
	BillableAmount Number `json:"billableAmount"`
	LaborHours     Number `json:"laborHours"`
	BillableHours  Number `json:"billableHours"`
	Billable       Flag   `json:"billable"`
}

// UnmarshalJSON decodes an entry leniently: text fields accept any JSON
// scalar and numeric fields fall back to zero. Only a payload that is not an
// object is rejected.
func (e *TimeLogEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date           text   `json:"date"`
		UserName       text   `json:"userName"`
		ClientName     text   `json:"clientName"`
		ProjectName    text   `json:"projectName"`
		TaskName       text   `json:"taskName"`
		StartFinish    text   `json:"startFinish"`
		Note           text   `json:"note"`
		BillableAmount Number `json:"billableAmount"`
		LaborHours     Number `json:"laborHours"`
		BillableHours  Number `json:"billableHours"`
		Billable       Flag   `json:"billable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = TimeLogEntry{
		Date:           string(raw.Date),
		UserName:       string(raw.UserName),
		ClientName:     string(raw.ClientName),
		ProjectName:    string(raw.ProjectName),
		TaskName:       string(raw.TaskName),
		StartFinish:    string(raw.StartFinish),
		Note:           string(raw.Note),
		BillableAmount: raw.BillableAmount,
		LaborHours:     raw.LaborHours,
		BillableHours:  raw.BillableHours,
		Billable:       raw.Billable,
	}
	return nil
}

// text is a string decoded leniently: numbers and booleans keep their JSON
// text, objects and arrays become empty.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "" || raw == "null" || raw[0] == '{' || raw[0] == '[':
		*t = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = ""
			return nil
		}
		*t = text(s)
	default:
		*t = text(raw)
	}
	return nil
}

// Totals holds the three aggregates carried by date groups and the report total.
type Totals struct {
	BillableAmount Number `json:"billableAmount"`
	LaborHours     Number `json:"laborHours"`
	BillableHours  Number `json:"billableHours"`
}

// AddEntry returns t with the entry's values added.
func (t Totals) AddEntry(e TimeLogEntry) Totals {
	return Totals{
		BillableAmount: t.BillableAmount.Add(e.BillableAmount),
		LaborHours:     t.LaborHours.Add(e.LaborHours),
		BillableHours:  t.BillableHours.Add(e.BillableHours),
	}
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		BillableAmount: t.BillableAmount.Add(o.BillableAmount),
		LaborHours:     t.LaborHours.Add(o.LaborHours),
		BillableHours:  t.BillableHours.Add(o.BillableHours),
	}
}

// Equal reports whether all three aggregates match exactly.
func (t Totals) Equal(o Totals) bool {
	return t.BillableAmount.Equal(o.BillableAmount) &&
		t.LaborHours.Equal(o.LaborHours) &&
		t.BillableHours.Equal(o.BillableHours)
}

// IsZero reports whether every aggregate is zero.
func (t Totals) IsZero() bool {
	return t.BillableAmount.IsZero() && t.LaborHours.IsZero() && t.BillableHours.IsZero()
}

// Number is a decimal value decoded leniently from JSON. Numbers, numeric
// strings (optionally with a leading "$" and thousands separators) are
// accepted; anything else decodes to zero instead of failing.
type Number struct {
	d decimal.Decimal
}

// Bounds on accepted values. Anything outside them is treated as malformed
// so that exponents like 1e300000000 never reach big-integer arithmetic.
const (
	maxNumberLength   = 40
	maxNumberExponent = 20
	minNumberExponent = -20
)

var maxNumberMagnitude = decimal.New(1, 15)

// NewNumber creates a Number from a float.
func NewNumber(f float64) Number {
	return Number{d: decimal.NewFromFloat(f)}
}

// ParseNumber parses s leniently; unparseable or out-of-range input yields
// zero. Accepted values have a magnitude below 1e15.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if len(s) > maxNumberLength {
		return Number{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}
	}
	// Check the exponent before anything that rescales the coefficient.
	if exp := d.Exponent(); exp > maxNumberExponent || exp < minNumberExponent {
		return Number{}
	}
	if d.Abs().Cmp(maxNumberMagnitude) >= 0 {
		return Number{}
	}
	return Number{d: d}
}

// Decimal returns the underlying exact value.
func (n Number) Decimal() decimal.Decimal { return n.d }

// Add returns n + o.
func (n Number) Add(o Number) Number { return Number{d: n.d.Add(o.d)} }

// Equal reports whether n and o are numerically equal.
func (n Number) Equal(o Number) bool { return n.d.Equal(o.d) }

// IsZero reports whether n is zero.
func (n Number) IsZero() bool { return n.d.IsZero() }

// Fixed renders n rounded to two decimal places.
func (n Number) Fixed() string { return n.d.StringFixed(2) }

func (n Number) String() string { return n.d.String() }

// MarshalJSON writes n as a bare JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.d.String()), nil
}

// UnmarshalJSON never fails: malformed values become zero.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "" || raw == "null":
		*n = Number{}
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = Number{}
			return nil
		}
		*n = ParseNumber(s)
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		*n = ParseNumber(raw)
	default:
		*n = Number{}
	}
	return nil
}

// Flag is a boolean decoded leniently from JSON booleans, numbers and
// strings such as "yes" or "true".
type Flag bool

// MarshalJSON writes f as a JSON boolean.
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

// UnmarshalJSON never fails: unrecognized values are false.
func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw != "" && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			raw = s
		}
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}
