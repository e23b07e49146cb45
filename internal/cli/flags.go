package cli

import (
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/spf13/pflag"
)

// dateValue is a YYYY-MM-DD flag. The zero date means "not set".
type dateValue struct {
	d *domain.Date
}

var _ pflag.Value = dateValue{}

func newDateValue(d *domain.Date) dateValue { return dateValue{d: d} }

func (v dateValue) String() string {
	if v.d == nil || v.d.IsZero() {
		return ""
	}
	return v.d.String()
}

func (v dateValue) Set(s string) error {
	d, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

func (dateValue) Type() string { return "date" }
