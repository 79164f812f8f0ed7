package employee

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/campus-sdk/pkg/constants"
)

type CreateDTO struct {
	FirstName  string `json:"first_name" yaml:"first_name" validate:"required"`
	LastName   string `json:"last_name" yaml:"last_name" validate:"required"`
	MiddleName string `json:"middle_name" yaml:"middle_name"`
	DeviceID   *int64 `json:"device_id" yaml:"device_id" validate:"omitempty,gt=0"`
}

func (d *CreateDTO) Normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.MiddleName = strings.TrimSpace(d.MiddleName)
}

// Ok validates d and returns field errors keyed by struct field name.
func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}

	out := map[string]string{}
	var validatorErrs validator.ValidationErrors
	if !errors.As(errs, &validatorErrs) {
		out["_"] = errs.Error()
		return out, false
	}
	for _, fe := range validatorErrs {
		out[fe.Field()] = fe.Tag()
	}
	return out, false
}

func (d *CreateDTO) ToEntity() Employee {
	return New(d.FirstName, d.LastName, d.MiddleName, d.DeviceID)
}
