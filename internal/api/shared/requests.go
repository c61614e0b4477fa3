package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/shop-api/internal/domain"
)

// maxBodyBytes caps request bodies; every payload in this API is small.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports field errors under their JSON names so a client sees
// "quantity" rather than "Quantity".
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

// DecodeJSON decodes exactly one JSON object from the body into v. Unknown
// fields, trailing data and malformed JSON produce a *domain.ValidationError.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", fmt.Sprintf("is not valid JSON: %v", err), nil)
	}
	if dec.More() {
		return domain.NewValidationError("body", "must contain a single JSON object", nil)
	}
	return nil
}

// ValidateRequest checks the validate struct tags on v, then runs v's own
// Validate method when it has one.
func ValidateRequest(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return err
	}
	if sv, ok := v.(interface{ Validate() error }); ok {
		return sv.Validate()
	}
	return nil
}
