// Package validation checks and normalizes public form payloads before they
// reach the submission pipeline. It never touches the data store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/internal/savings"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/phone"
	"relocation_quiz_backend/platform/sanitize"
	"relocation_quiz_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

const msgValidationFailed = "validation failed"

// Violation is one field-attributed problem in a payload.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Validator runs the per-form rules. It is safe for concurrent use once built.
type Validator struct {
	val *validator.Validator
}

// New registers the bracket, phone and consent rules on val.
func New(val *validator.Validator, brackets *savings.BracketConfig) (*Validator, error) {
	rules := map[string]playground.Func{
		"usphone": func(fl playground.FieldLevel) bool {
			return phone.IsValidUS(fl.Field().String())
		},
		"income_bracket": func(fl playground.FieldLevel) bool {
			return brackets.HasIncomeBracket(fl.Field().String())
		},
		"housing_bracket": func(fl playground.FieldLevel) bool {
			return brackets.HasHousingBracket(fl.Field().String())
		},
		"age_bracket": func(fl playground.FieldLevel) bool {
			return brackets.HasAgeBracket(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := val.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	val.RegisterStructValidation(smsConsentRule, transport.QuizSubmissionRequest{})

	return &Validator{val: val}, nil
}

// Validate normalizes payload in place and checks it against the rules of
// formType. All violations are returned together as a KindValidation error
// whose Details is a []Violation.
func (v *Validator) Validate(formType domain.FormType, payload any) error {
	switch formType {
	case domain.FormContact:
		req, ok := payload.(*transport.ContactRequest)
		if !ok {
			return unexpectedPayload(formType, payload)
		}
		NormalizeContact(req)
	case domain.FormLeadMagnet:
		req, ok := payload.(*transport.LeadMagnetRequest)
		if !ok {
			return unexpectedPayload(formType, payload)
		}
		req.Email = sanitize.Email(req.Email)
	case domain.FormQuiz:
		req, ok := payload.(*transport.QuizSubmissionRequest)
		if !ok {
			return unexpectedPayload(formType, payload)
		}
		NormalizeQuiz(req)
	default:
		return apperr.Internal(fmt.Sprintf("unknown form type %q", formType))
	}

	return v.Struct(payload)
}

// Struct validates any tagged request and maps failures to violations.
func (v *Validator) Struct(payload any) error {
	err := v.val.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.BadRequest("invalid request body")
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return apperr.Validation(msgValidationFailed).WithDetails(violations)
}

// SessionID checks a session token taken from the URL path.
func (v *Validator) SessionID(id string) error {
	err := v.val.Var(id, "required,min=8,max=64")
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.BadRequest("invalid session id")
	}
	fe := fieldErrs[0]
	return apperr.Validation(msgValidationFailed).WithDetails([]Violation{{
		Field:   "session_id",
		Rule:    fe.Tag(),
		Message: message(fe),
	}})
}

// Violations extracts the violation list from a validation error.
func Violations(err error) []Violation {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return nil
	}
	violations, _ := appErr.Details.([]Violation)
	return violations
}

// NormalizeContact trims and strips markup from every contact field.
func NormalizeContact(req *transport.ContactRequest) {
	req.FirstName = sanitize.Line(req.FirstName)
	req.LastName = sanitize.Line(req.LastName)
	req.Email = sanitize.Email(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Location = sanitize.Line(req.Location)
	req.InvestmentRange = sanitize.Line(req.InvestmentRange)
	req.Message = sanitize.Text(req.Message)
}

// NormalizeQuiz trims the identity fields and the single-choice answers.
// Multi-select answers are already normalized by transport.StringSet.
func NormalizeQuiz(req *transport.QuizSubmissionRequest) {
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.FirstName = sanitize.Line(req.FirstName)
	req.Email = sanitize.Email(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	a := &req.Answers
	a.HousingStatus = sanitize.Line(a.HousingStatus)
	a.MonthlyCost = strings.TrimSpace(a.MonthlyCost)
	a.IncomeBracket = strings.TrimSpace(a.IncomeBracket)
	a.AgeRange = strings.TrimSpace(a.AgeRange)
	a.Timeline = sanitize.Line(a.Timeline)
	a.Concern = sanitize.Text(a.Concern)
}

// smsConsentRule reports a phone number without SMS consent against the
// consent field.
func smsConsentRule(sl playground.StructLevel) {
	req, ok := sl.Current().Interface().(transport.QuizSubmissionRequest)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Phone) != "" && !req.SMSConsent {
		sl.ReportError(req.SMSConsent, "sms_consent", "SMSConsent", "sms_consent", "")
	}
}

// fieldPath drops the root struct name from the namespace so nested fields
// read as "answers.income_bracket".
func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return strings.TrimSpace(fmt.Sprintf("must be at least %s %s", fe.Param(), unit(fe)))
	case "max":
		return strings.TrimSpace(fmt.Sprintf("must be at most %s %s", fe.Param(), unit(fe)))
	case "usphone":
		return "must be a valid US phone number"
	case "income_bracket", "housing_bracket", "age_bracket":
		return "is not a recognized option"
	case "sms_consent":
		return "must be accepted when a phone number is provided"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

func unit(fe playground.FieldError) string {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	case reflect.String:
		return "characters"
	default:
		return ""
	}
}

func unexpectedPayload(formType domain.FormType, payload any) error {
	return apperr.Internal(fmt.Sprintf("unexpected payload %T for form %s", payload, formType))
}
