package apperr

// ValidationError marks client input that is rejected with 400. Field names the
// offending input when there is a single one.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// InvalidField reports a malformed value of field.
func InvalidField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "invalid " + field}
}
