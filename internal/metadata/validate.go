package metadata

import (
	"fmt"
	"strings"

	"github.com/roach88/bslq/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyName          = "E101" // object, attribute or section without a name
	ErrDuplicateAttribute = "E102" // two attributes fold to the same name
	ErrInvalidType        = "E103" // attribute type does not parse
	ErrShadowsBuiltin     = "E104" // attribute hides a built-in column
	ErrNoResources        = "E105" // register declares no resources
	ErrDuplicateSection   = "E106" // two tabular sections fold to the same name
)

// ValidationError represents a metadata validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks declared objects. Returns all errors found (does not
// fail-fast), in object order.
func Validate(objs []*Object) []ValidationError {
	errs := []ValidationError{}
	for _, obj := range objs {
		errs = append(errs, validateObject(obj)...)
	}
	return errs
}

func validateObject(obj *Object) []ValidationError {
	var errs []ValidationError
	path := fmt.Sprintf("%s.%s", obj.Kind, obj.Name)

	if strings.TrimSpace(obj.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   string(obj.Kind),
			Message: "object name is required",
			Code:    ErrEmptyName,
		})
	}

	// Dimensions, resources and attributes share one namespace.
	seen := make(map[string]bool)
	groups := []struct {
		label string
		attrs []ir.Attribute
	}{
		{"dimensions", obj.Dimensions},
		{"resources", obj.Resources},
		{"attributes", obj.Attributes},
	}
	for _, g := range groups {
		for i, a := range g.attrs {
			field := fmt.Sprintf("%s.%s[%d]", path, g.label, i)
			errs = append(errs, validateAttribute(a, field, seen)...)

			if IsBuiltin(obj.Kind, a.Name) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("%q shadows a built-in column", a.Name),
					Code:    ErrShadowsBuiltin,
				})
			}
		}
	}

	if obj.Kind.IsRegister() && len(obj.Resources) == 0 {
		errs = append(errs, ValidationError{
			Field:   path + ".resources",
			Message: "register must declare at least one resource",
			Code:    ErrNoResources,
		})
	}

	sections := make(map[string]bool)
	for i, ts := range obj.TabularSections {
		field := fmt.Sprintf("%s.tabular_sections[%d]", path, i)
		if strings.TrimSpace(ts.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "tabular section name is required",
				Code:    ErrEmptyName,
			})
		} else if key := ir.Fold(ts.Name); sections[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate tabular section %q", ts.Name),
				Code:    ErrDuplicateSection,
			})
		} else {
			sections[key] = true
		}

		cols := make(map[string]bool)
		for j, a := range ts.Attributes {
			attrField := fmt.Sprintf("%s.attributes[%d]", field, j)
			errs = append(errs, validateAttribute(a, attrField, cols)...)
			for _, c := range SectionColumns(obj.Kind, obj.Name) {
				if ir.SameName(c.Name, a.Name) {
					errs = append(errs, ValidationError{
						Field:   attrField,
						Message: fmt.Sprintf("%q shadows a built-in column", a.Name),
						Code:    ErrShadowsBuiltin,
					})
				}
			}
		}
	}

	return errs
}

// validateAttribute checks one attribute and records its folded name in seen.
func validateAttribute(a ir.Attribute, field string, seen map[string]bool) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "attribute name is required",
			Code:    ErrEmptyName,
		})
	} else {
		key := ir.Fold(a.Name)
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate attribute %q", a.Name),
				Code:    ErrDuplicateAttribute,
			})
		}
		seen[key] = true
	}

	if _, err := ir.ParseTypeName(a.Type); err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".type",
			Message: err.Error(),
			Code:    ErrInvalidType,
		})
	}
	return errs
}
