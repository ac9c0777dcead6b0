package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

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

// decode reads a JSON body into dst and runs the struct validation tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("body", "invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return models.NewValidationError("body", err.Error())
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return models.NewValidationError(fe.Field(), fe.Field()+" is required")
	case "oneof":
		return models.NewValidationError(fe.Field(), fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
	default:
		return models.NewValidationError(fe.Field(), fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
}
