package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Message string
	Detail  string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// NotFoundError is returned when the addressed record does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// Message is the client-facing summary, e.g. "Task not found".
func (e *NotFoundError) Message() string {
	return e.Entity + " not found"
}

// Detail names the lookup that failed.
func (e *NotFoundError) Detail() string {
	return fmt.Sprintf("No %s found with the provided ID", strings.ToLower(e.Entity))
}

var (
	errInvalidID = &ValidationError{
		Message: "Invalid ID format",
		Detail:  "The provided ID is not valid",
	}
	errInvalidAssignee = &ValidationError{
		Message: "Invalid assigned user",
		Detail:  "The assigned user does not exist",
		Fields:  []string{"assignedUser"},
	}
	errInvalidTaskIDs = &ValidationError{
		Message: "Invalid task IDs",
		Detail:  "One or more task IDs do not exist",
		Fields:  []string{"pendingTasks"},
	}
)

// checkID returns the canonical form of a path id.
func checkID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", errInvalidID
	}
	return parsed.String(), nil
}

// requiredFields converts validator failures into the client error for the
// entity's mandatory fields.
func requiredFields(err error, message, detail string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Message: message, Detail: detail, Fields: fields}
}
