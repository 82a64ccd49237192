package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

type loginRequest struct {
	Pin string `json:"pin" validate:"required,max=64"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// saveRequest carries the edited rows of one table. Confirm sets the
// table's confirmation before the save is attempted.
type saveRequest struct {
	Confirm bool       `json:"confirm"`
	Rows    []core.Row `json:"rows" validate:"max=10000"`
}

type periodRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=1,max=9999"`
}

func (p periodRequest) period() core.Period {
	return core.Period{Month: p.Month, Year: p.Year}
}

type simulateRequest struct {
	periodRequest
	Overrides ledger.Overrides `json:"overrides"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
