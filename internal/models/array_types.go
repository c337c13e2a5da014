package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// StringArray is a custom type for handling TEXT[] arrays in PostgreSQL
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array([]string(a)).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}

// FlexNumber accepts a JSON number or a numeric string.
// The browser client sends route IDs and prices as strings.
type FlexNumber struct {
	raw string
	set bool
}

// NewFlexNumber builds a FlexNumber from a float value
func NewFlexNumber(v float64) FlexNumber {
	return FlexNumber{raw: strconv.FormatFloat(v, 'f', -1, 64), set: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = FlexNumber{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		*n = FlexNumber{}
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	n.raw = s
	n.set = true
	return nil
}

// MarshalJSON implements json.Marshaler
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return []byte(n.raw), nil
}

// IsSet reports whether a value was supplied
func (n FlexNumber) IsSet() bool {
	return n.set
}

// Float returns the value as float64
func (n FlexNumber) Float() float64 {
	if !n.set {
		return 0
	}
	v, _ := strconv.ParseFloat(n.raw, 64)
	return v
}

// Int returns the value as an integer, rejecting fractional input
func (n FlexNumber) Int() (int, error) {
	if !n.set {
		return 0, fmt.Errorf("value is required")
	}
	v, err := strconv.Atoi(n.raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", n.raw)
	}
	return v, nil
}
