package model

import (
	"strconv"

	"github.com/rotisserie/eris"
)

// PrivacySuppressed is the literal sentinel the field-of-study source uses
// when an earnings figure exists but is withheld. It must survive the
// pipeline unchanged and stay distinguishable from null and zero.
const PrivacySuppressed = "PrivacySuppressed"

// Earnings is a dollar amount, the PrivacySuppressed sentinel, or absent.
type Earnings struct {
	Amount     int
	Suppressed bool
	Known      bool
}

// ParseEarnings interprets a raw earnings column value.
func ParseEarnings(raw string) (Earnings, error) {
	if raw == "" || raw == "NULL" {
		return Earnings{}, nil
	}
	if raw == PrivacySuppressed {
		return Earnings{Suppressed: true, Known: true}, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Earnings{}, eris.Wrapf(err, "model: parse earnings %q", raw)
	}
	return Earnings{Amount: int(v), Known: true}, nil
}

// MarshalJSON emits null when absent, the sentinel string when suppressed,
// otherwise the number.
func (e Earnings) MarshalJSON() ([]byte, error) {
	if !e.Known {
		return []byte("null"), nil
	}
	if e.Suppressed {
		return []byte(`"` + PrivacySuppressed + `"`), nil
	}
	return []byte(strconv.Itoa(e.Amount)), nil
}

// UnmarshalJSON accepts null, the sentinel string, or a number.
func (e *Earnings) UnmarshalJSON(data []byte) error {
	s := string(data)
	switch {
	case s == "null":
		*e = Earnings{}
		return nil
	case s == `"`+PrivacySuppressed+`"`:
		*e = Earnings{Suppressed: true, Known: true}
		return nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return eris.Wrapf(err, "model: unmarshal earnings %s", s)
		}
		*e = Earnings{Amount: int(v), Known: true}
		return nil
	}
}
