package service

import (
	"time"

	"ventify/internal/apierror"
)

// reloj is the time source of a service; tests replace it.
type reloj struct {
	now func() time.Time
	loc *time.Location
}

func nuevoReloj(loc *time.Location) reloj {
	if loc == nil {
		loc = time.Local
	}
	return reloj{now: time.Now, loc: loc}
}

// ahora is the current instant in the business time zone.
func (r reloj) ahora() time.Time { return r.now().In(r.loc) }

// inicioDelDia is local midnight of t's calendar day in the business zone.
func (r reloj) inicioDelDia(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc)
}

// parseFecha accepts RFC3339 or YYYY-MM-DD. A bare date is local midnight;
// finDeDia moves it to the following midnight so it can be used as an
// exclusive upper bound.
func (r reloj) parseFecha(campo, s string, finDeDia bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, r.loc)
	if err != nil {
		return time.Time{}, apierror.InvalidInputf("%s inválida, formato esperado YYYY-MM-DD", campo)
	}
	if finDeDia {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}
