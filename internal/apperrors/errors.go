package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrAlreadyApplied indicates that an investment has already been credited for
// the current UTC day, so the mutation was refused to avoid a double credit.
var ErrAlreadyApplied = errors.New("return already applied today")

// ErrRunInProgress indicates that another scheduler run holds the cross-run lock.
var ErrRunInProgress = errors.New("another run is in progress")
