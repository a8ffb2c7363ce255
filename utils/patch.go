package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrFieldNotPatchable is returned when a partial update names a field outside the whitelist
var ErrFieldNotPatchable = errors.New("field not patchable")

// ValidatePatchFields rejects the whole payload if any key is not in allowed.
// The error names every offending key in sorted order.
func ValidatePatchFields(payload map[string]interface{}, allowed []string) error {
	err := validate.Var(payload, "dive,keys,oneof="+strings.Join(allowed, " ")+",endkeys")
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	rejected := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		rejected = append(rejected, fmt.Sprint(fe.Value()))
	}
	sort.Strings(rejected)
	return fmt.Errorf("%w: %v", ErrFieldNotPatchable, rejected)
}

// IsTruthy reports whether a decoded JSON value counts as set.
// null, "", 0, false, [] and {} are not.
func IsTruthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// TruthyFields returns the subset of payload whose values are truthy.
// Falsy values are dropped silently; the result is never nil.
func TruthyFields(payload map[string]interface{}) map[string]interface{} {
	changes := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		if IsTruthy(value) {
			changes[key] = value
		}
	}
	return changes
}
