// Package validation wraps go-playground/validator with Spanish messages and maps
// failures onto the application error taxonomy.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"

	apperrors "github.com/aulaweb/aula-admin/internal/errors"
)

const (
	requiredTag  = "required"
	requiredText = "{0} es obligatorio"
	emailTag     = "email"
	emailText    = "{0} debe ser un correo válido"
)

// Validator validates request structs and reports the first failing field.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with Spanish translations and json-tag field names.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	locale := es.New()
	uni := ut.New(locale, locale)
	translator, found := uni.GetTranslator("es")
	if !found {
		return nil, errors.New("spanish translator not available")
	}
	if err := es_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := registerTranslation(validate, translator, requiredTag, requiredText); err != nil {
		return nil, err
	}
	if err := registerTranslation(validate, translator, emailTag, emailText); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, translator: translator}, nil
}

// MustNew is New for process wiring where a failure is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err) //nolint:forbidigo // Fail fast during startup.
	}
	return v
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) error {
	return validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

// Struct validates v. Failures are returned as a validation AppError naming the first bad field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "datos inválidos")
	}

	first := fieldErrs[0]
	appErr := apperrors.ValidationField(first.Field(), first.Translate(v.translator))
	appErr.Cause = err
	return appErr
}

// Var validates a single value against a tag expression, e.g. "required,email".
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		// Var has no field name, so the translation starts where the name would be.
		msg := field + " " + strings.TrimSpace(fieldErrs[0].Translate(v.translator))
		appErr := apperrors.ValidationField(field, msg)
		appErr.Cause = err
		return appErr
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "datos inválidos")
}

// Messages returns every translated failure keyed by field, for form re-rendering.
func (v *Validator) Messages(err error) map[string]string {
	out := map[string]string{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		if f := apperrors.GetField(err); f != "" {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				out[f] = appErr.Message
			}
		}
		return out
	}
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fe.Translate(v.translator)
		}
	}
	return out
}
