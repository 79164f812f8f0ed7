package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/campus-sdk/pkg/constants"
)

type LoadDTO struct {
	Month    string `validate:"required,datetime=2006-01"`
	FileName string `validate:"required"`
	Data     []byte `validate:"required,min=1"`
}

// Ok returns field -> failed tag for an invalid payload.
func (d *LoadDTO) Ok() (map[string]string, bool) {
	d.Month = strings.TrimSpace(d.Month)
	errs := map[string]string{}
	err := constants.Validate.Struct(d)
	if err == nil {
		return errs, true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs, false
	}
	for _, fe := range verrs {
		errs[fe.Field()] = fe.Tag()
	}
	return errs, false
}
