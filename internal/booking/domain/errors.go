package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingRequiredField = errors.New("missing_required_field")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidRecordClass   = errors.New("invalid_record_class")
)

// MissingRequiredFieldError is returned when a required canonical field cannot
// be mapped from any of the offered column labels. Ingestion of the file aborts.
type MissingRequiredFieldError struct {
	Field         string
	OfferedLabels []string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q could not be mapped from columns [%s]",
		e.Field, strings.Join(e.OfferedLabels, ", "))
}

func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}
