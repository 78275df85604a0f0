package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// HoraDelDia is a time of day stored as seconds since midnight.
type HoraDelDia int

// ParseHoraDelDia accepts "HH:MM" or "HH:MM:SS".
func ParseHoraDelDia(s string) (HoraDelDia, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return HoraDelDia(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("hora inválida %q, formato esperado HH:MM", s)
}

// HoraDe returns the wall-clock time of day of t in t's location.
func HoraDe(t time.Time) HoraDelDia {
	return HoraDelDia(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (h HoraDelDia) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(h)/3600, (int(h)%3600)/60, int(h)%60)
}

func (h HoraDelDia) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HoraDelDia) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseHoraDelDia(s)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

func (h HoraDelDia) Value() (driver.Value, error) {
	return int64(h), nil
}

func (h *HoraDelDia) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*h = HoraDelDia(v)
	case float64:
		*h = HoraDelDia(int64(v))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return err
		}
		*h = HoraDelDia(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*h = HoraDelDia(n)
	default:
		return fmt.Errorf("HoraDelDia: tipo no soportado %T", src)
	}
	return nil
}
