package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
)

const isoDateLayout = "2006-01-02"

// Registry resolves submission types to their contracts and validates raw
// payloads into typed values. It is immutable once constructed.
type Registry struct {
	validate *validator.Validate
	entries  map[models.SubmissionType]entry
}

// NewRegistry builds the registry with all known contracts.
func NewRegistry() *Registry {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(isoDateLayout, fl.Field().String())
		return err == nil
	})

	validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		parsed, err := time.Parse(isoDateLayout, fl.Field().String())
		if err != nil {
			// Format violations are reported by the isodate rule.
			return true
		}
		return !parsed.After(time.Now())
	})

	return &Registry{validate: validate, entries: buildEntries()}
}

// Lookup returns the contract for a submission type.
func (r *Registry) Lookup(t models.SubmissionType) (Contract, bool) {
	e, ok := r.entries[t]
	return e.contract, ok
}

// Contracts returns every registered contract, sorted by type.
func (r *Registry) Contracts() []Contract {
	contracts := make([]Contract, 0, len(r.entries))
	for _, e := range r.entries {
		contracts = append(contracts, e.contract)
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].Type < contracts[j].Type })
	return contracts
}

// Validate decodes and validates a raw payload against its type's contract.
// It is pure: no storage access, no side effects. The returned value is the
// only payload form the rest of the system accepts.
func (r *Registry) Validate(t models.SubmissionType, raw []byte) (models.Payload, error) {
	e, ok := r.entries[t]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubmission, fmt.Sprintf("unknown submission type %q", t))
	}

	if len(raw) == 0 {
		raw = []byte("{}")
	}

	payload, err := e.decode(raw)
	if err != nil {
		return nil, appErrors.Validation("payload is not valid JSON for "+string(t), nil)
	}

	if err := r.validate.Struct(payload); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "payload validation failed")
		}
		fields := make([]appErrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, appErrors.FieldError{Field: fe.Field(), Message: describeViolation(fe)})
		}
		return nil, appErrors.Validation("invalid "+string(t)+" payload", fields)
	}

	return payload, nil
}

func describeViolation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "isodate":
		return "must be an ISO date (YYYY-MM-DD)"
	case "notfuture":
		return "must not be in the future"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
