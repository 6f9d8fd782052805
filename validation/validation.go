// Package validation applies the per-field rules of a patient submission to a raw
// JSON payload and reports every violated field.
//
// Text rules run through go-playground/validator tags; type checks that tags cannot
// express (a string that arrived as a number, a missing key) are done by hand first.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ariebrainware/patient-intake/model"
	"github.com/ariebrainware/patient-intake/util"
	"github.com/go-playground/validator/v10"
)

// InfoPolicy selects how the optional info field is treated.
type InfoPolicy string

const (
	// InfoOptional accepts an absent or null info; an empty string is stored as NULL.
	InfoOptional InfoPolicy = "optional"
	// InfoRequired demands the info key be present as a string; empty is allowed.
	InfoRequired InfoPolicy = "required"
)

const (
	textTag   = "required,max=255"
	rollnoTag = "required,numeric"
)

// maxInfoBytes is the capacity of the TEXT column holding info.
const maxInfoBytes = 65535

var validate = validator.New()

// FieldError is a single violation reported to the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of violations of one payload. It satisfies error.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Rules validates submission payloads.
type Rules struct {
	Info InfoPolicy
}

// ParsePolicy maps a configuration value onto an InfoPolicy.
func ParsePolicy(s string) (InfoPolicy, error) {
	switch InfoPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case InfoOptional:
		return InfoOptional, nil
	case InfoRequired:
		return InfoRequired, nil
	}
	return "", fmt.Errorf("unknown info policy %q", s)
}

// Validate checks payload and returns its typed fields, or Errors listing every
// violated field in the order name, rollno, city, info.
func (r Rules) Validate(payload map[string]interface{}) (model.Submission, error) {
	var (
		sub  model.Submission
		errs Errors
	)

	if name, fe := textField(payload, "name"); fe != nil {
		errs = append(errs, *fe)
	} else {
		sub.Name = name
	}

	if rollno, fe := rollnoField(payload); fe != nil {
		errs = append(errs, *fe)
	} else {
		sub.Rollno = rollno
	}

	if city, fe := textField(payload, "city"); fe != nil {
		errs = append(errs, *fe)
	} else {
		sub.City = city
	}

	if info, fe := r.infoField(payload); fe != nil {
		errs = append(errs, *fe)
	} else {
		sub.Info = info
	}

	if len(errs) > 0 {
		return model.Submission{}, errs
	}
	return sub, nil
}

func textField(payload map[string]interface{}, field string) (string, *FieldError) {
	raw, ok := payload[field]
	if !ok || raw == nil {
		return "", &FieldError{Field: field, Message: "is required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &FieldError{Field: field, Message: "must be a string"}
	}
	s = util.NormalizeName(s)
	if fe := checkVar(field, s, textTag); fe != nil {
		return "", fe
	}
	return s, nil
}

// rollnoField accepts a JSON number or a numeric string and stores it as int64.
// Integral numbers in exponent form (1e3) are accepted; fractions are not.
func rollnoField(payload map[string]interface{}) (int64, *FieldError) {
	const field = "rollno"

	var s string
	switch v := payload[field].(type) {
	case nil:
		return 0, &FieldError{Field: field, Message: "is required"}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, &FieldError{Field: field, Message: "is out of range"}
			}
			return 0, &FieldError{Field: field, Message: "must be a number"}
		}
		return wholeNumber(field, f)
	case float64:
		return wholeNumber(field, v)
	case string:
		s = strings.TrimSpace(v)
	default:
		return 0, &FieldError{Field: field, Message: "must be a number"}
	}

	if fe := checkVar(field, s, rollnoTag); fe != nil {
		return 0, fe
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &FieldError{Field: field, Message: "is out of range"}
		}
		return 0, &FieldError{Field: field, Message: "must be a whole number"}
	}
	return n, nil
}

func wholeNumber(field string, f float64) (int64, *FieldError) {
	if f != math.Trunc(f) {
		return 0, &FieldError{Field: field, Message: "must be a whole number"}
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &FieldError{Field: field, Message: "is out of range"}
	}
	return int64(f), nil
}

func (r Rules) infoField(payload map[string]interface{}) (*string, *FieldError) {
	const field = "info"

	raw, present := payload[field]
	if !present || raw == nil {
		if r.Info == InfoRequired {
			return nil, &FieldError{Field: field, Message: "is required"}
		}
		return nil, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, &FieldError{Field: field, Message: "must be a string"}
	}
	// MySQL sizes TEXT in bytes, so multi-byte scripts reach the cap sooner.
	if len(s) > maxInfoBytes {
		return nil, &FieldError{Field: field, Message: fmt.Sprintf("must not exceed %d bytes", maxInfoBytes)}
	}
	if s == "" && r.Info != InfoRequired {
		return nil, nil
	}
	return &s, nil
}

func checkVar(field string, value interface{}, tag string) *FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FieldError{Field: field, Message: "is invalid"}
	}
	return &FieldError{Field: field, Message: tagMessage(verrs[0])}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must be numeric"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s:%s", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
