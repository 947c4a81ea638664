package process

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator with the process-specific
// tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("nodekind", func(fl validator.FieldLevel) bool {
			_, ok := ParseKind(fl.Field().String())
			return ok
		})
	})
	return validate
}

// ValidateStruct runs tag validation on v and flattens the result into a
// single readable error.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "nodekind":
		return fmt.Sprintf("%s: unknown node type %q (valid: generator, queue, selector, transformer, transporter, output)", fe.Namespace(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Namespace(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
}

// Validate checks structural rules: required fields, known node types and
// unique node ids. Edge endpoints are not checked here; dangling edges are
// reported when the network is wired.
func (d *Definition) Validate() error {
	if err := ValidateStruct(d); err != nil {
		return err
	}
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}
