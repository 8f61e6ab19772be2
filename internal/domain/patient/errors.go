package patient

import "errors"

var (
	// ErrNotFound means the identifier resolved to no record.
	ErrNotFound = errors.New("patient not found")
	// ErrDuplicatePatientID means another record already owns the patientId.
	ErrDuplicatePatientID = errors.New("patient ID already exists")
	// ErrValidation wraps every required-field and enum violation.
	ErrValidation = errors.New("validation failed")
)
