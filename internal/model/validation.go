package model

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const dateOfBirthLayout = "2006-01-02"

// RegisterValidators installs custom binding validators on gin's
// validator engine. Call once at startup before handling requests.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("pastdate", pastDate)
}

// pastDate accepts a YYYY-MM-DD date strictly before today.
func pastDate(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	date, err := time.Parse(dateOfBirthLayout, value)
	if err != nil {
		return false
	}
	return date.Before(time.Now())
}
