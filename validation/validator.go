// Package validation checks the shape of incoming participant and message
// records before they reach storage.
package validation

import (
	"chat-uol/domain"
	chaterrors "chat-uol/errors"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

type ParticipantRequest struct {
	Name string `json:"name" validate:"required,notbroadcast"`
}

type MessageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required,notblank"`
	Kind string `json:"kind" validate:"required,oneof=direct broadcast"`
}

// Normalize trims surrounding blanks so that "  " counts as missing.
// Message text is kept as sent; only its emptiness is checked without blanks.
func (p ParticipantRequest) Normalize() ParticipantRequest {
	p.Name = strings.TrimSpace(p.Name)
	return p
}

func (m MessageRequest) Normalize() MessageRequest {
	m.To = strings.TrimSpace(m.To)
	m.Kind = strings.TrimSpace(m.Kind)
	return m
}

// ValidateParticipant returns a *errors.ValidationError listing every violation, or nil.
func ValidateParticipant(req ParticipantRequest) error {
	return check(req)
}

// ValidateMessage returns a *errors.ValidationError listing every violation, or nil.
func ValidateMessage(req MessageRequest) error {
	return check(req)
}

func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return &chaterrors.ValidationError{Details: []string{err.Error()}}
	}
	details := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, describe(fe))
	}
	return &chaterrors.ValidationError{Details: details}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%q is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	case "notbroadcast":
		return fmt.Sprintf("%q must not be %q", fe.Field(), domain.BroadcastToken)
	default:
		return fmt.Sprintf("%q is invalid", fe.Field())
	}
}

// newValidator reports fields by their json name, the one clients send.
func newValidator() *validator.Validate {
	v := validator.New()
	rules := map[string]validator.Func{
		"notbroadcast": func(fl validator.FieldLevel) bool {
			return fl.Field().String() != domain.BroadcastToken
		},
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
	}
	for tag, rule := range rules {
		if err := v.RegisterValidation(tag, rule); err != nil {
			panic("validation: registering " + tag + ": " + err.Error())
		}
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}
