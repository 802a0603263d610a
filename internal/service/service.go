// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the JSON collections
//
// Services accept plain Go values and return domain errors from apperror.
// They know nothing about HTTP, so the same code backs the REST handlers and
// the migrate-events CLI command.
//
// READ-MODIFY-WRITE:
// Every mutation goes through repository.Collection.Update. The closure
// passed to Update is the only place where records are changed, and it runs
// while the collection's write lock is held, so checks like "is this name
// taken?" and the append that follows cannot interleave with another
// request. Errors returned from inside the closure (NotFound, Conflict)
// abort the write and come back unchanged.
package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
)

// msgInvalidData is the message of every record validation failure.
const msgInvalidData = "Invalid data provided."

// newValidator returns a validator that knows the notblank rule and reports
// fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		// Only fails for an empty tag or nil func.
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRecord runs struct validation and converts the first failure into
// an InvalidInput error. Every failing field is listed in Errors.
func validateRecord(v *validator.Validate, record any) error {
	err := v.Struct(record)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", msgInvalidData)
	}

	appErr := apperror.ValidationFailed(verrs[0].Field(), msgInvalidData)
	appErr.Errors = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		appErr.Errors[fe.Field()] = fe.Field() + " must not be blank"
	}
	return appErr
}

// storageErr turns a store failure into StorageUnavailable. Domain errors
// raised inside an Update closure already carry their kind and pass through.
func storageErr(collection string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.StorageUnavailable(collection, err)
}

// checkLimit validates a suffix limit. Zero means no limit.
func checkLimit(limit int) error {
	if limit < 0 {
		return apperror.ValidationFailed("max", "max must not be negative")
	}
	return nil
}

// lastN keeps the last n records in collection order. n == 0 keeps all.
func lastN[T any](records []T, n int) []T {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// filterSearch keeps the records whose search text contains term, ignoring
// case. An empty term keeps everything.
func filterSearch[T any](records []T, term string, text func(*T) string) []T {
	if term == "" {
		return records
	}
	term = strings.ToLower(term)

	out := make([]T, 0, len(records))
	for i := range records {
		if strings.Contains(strings.ToLower(text(&records[i])), term) {
			out = append(out, records[i])
		}
	}
	return out
}
