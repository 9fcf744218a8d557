package rules

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func ruleValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterStructValidation(thresholdOrder, model.Rule{})
	})
	return validate
}

// thresholdOrder rejects warning thresholds above their critical counterpart.
func thresholdOrder(sl validator.StructLevel) {
	r, ok := sl.Current().Interface().(model.Rule)
	if !ok {
		return
	}
	if r.WarningPercentage != nil && r.CriticalPercentage != nil && *r.WarningPercentage > *r.CriticalPercentage {
		sl.ReportError(r.WarningPercentage, "warning_percentage", "WarningPercentage", "ltecritical", "")
	}
	if r.WarningAbsolute != nil && r.CriticalAbsolute != nil && *r.WarningAbsolute > *r.CriticalAbsolute {
		sl.ReportError(r.WarningAbsolute, "warning_absolute", "WarningAbsolute", "ltecritical", "")
	}
}

// Validate checks a rule before it is stored under key.
func Validate(key string, rule model.Rule) error {
	if strings.TrimSpace(key) == "" {
		return &ValidationError{Message: "key is required"}
	}

	err := ruleValidator().Struct(rule)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Key: key, Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{
		Key:     key,
		Field:   fe.Field(),
		Message: describeTag(fe),
	}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must not be negative"
	case "oneof":
		return "must be one of info, warning, critical"
	case "ltecritical":
		return "must not exceed the critical threshold"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
