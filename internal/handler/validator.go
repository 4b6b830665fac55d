package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// requestValidator はgo-playground/validatorのラッパー。
type requestValidator struct {
	validate *validator.Validate
}

// newRequestValidator はrequestValidatorを生成する。
func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

// Struct は構造体のvalidateタグを検証し、最初の違反を人間可読な形で返す。
func (v *requestValidator) Struct(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		fe := ve[0]
		return fmt.Errorf("field %s failed on %q", fe.Field(), fe.Tag())
	}
	return err
}
