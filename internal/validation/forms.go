package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginForm - поля формы входа
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm - поля формы регистрации (ограничения совпадают с backend'ом)
type RegisterForm struct {
	FullName string `form:"full_name" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Phone    string `form:"phone" validate:"omitempty,max=20"`
	Password string `form:"password" validate:"required,min=6,max=100"`
}

// FieldErrors - сообщения об ошибках по имени поля формы
type FieldErrors map[string]string

// Error реализует error, чтобы FieldErrors можно было вернуть из сервиса
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// сообщения на индонезийском, как в UI
var messages = map[string]map[string]string{
	"email": {
		"required": "Email tidak valid",
		"email":    "Email tidak valid",
	},
	"password": {
		"required": "Password wajib diisi",
		"min":      "Password minimal 6 karakter",
		"max":      "Password maksimal 100 karakter",
	},
	"full_name": {
		"required": "Nama lengkap wajib diisi",
		"max":      "Nama lengkap maksimal 100 karakter",
	},
	"phone": {
		"max": "Nomor telepon maksimal 20 karakter",
	},
}

// Validator проверяет формы и переводит ошибки в FieldErrors
type Validator struct {
	v *validator.Validate
}

// New создает Validator; имена полей берутся из тега form
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Check возвращает nil или FieldErrors
func (v *Validator) Check(form any) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		out[fe.Field()] = msg
	}
	return out
}
