package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in minor units (two fraction digits).
// All arithmetic in the ledger happens on integers; rendering as a
// decimal string is a view concern.
type Cents int64

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts the decimal-string rendering as well as a bare
// number, which is read as whole units ("300" and "300.00" both mean
// 30000 cents).
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}

	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCents parses a decimal amount ("300", "300.5", "300.00").
// A bare integer is taken as whole units, so "300" means 300.00.
func ParseCents(s string) (Cents, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var minor int64
	switch len(frac) {
	case 0:
	case 1:
		minor, err = strconv.ParseInt(frac, 10, 64)
		minor *= 10
	case 2:
		minor, err = strconv.ParseInt(frac, 10, 64)
	default:
		return 0, errors.New("amounts carry at most two fraction digits")
	}
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	v := major*100 + minor
	if neg {
		v = -v
	}
	return Cents(v), nil
}
