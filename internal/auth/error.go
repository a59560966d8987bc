package auth

// Error represents a missing or invalid credential or a failed or malformed session exchange
type Error struct {
	Message string
	Cause   error
}

func (err *Error) Error() string {
	if err.Cause != nil {
		return err.Message + ": " + err.Cause.Error()
	}
	return err.Message
}

func (err *Error) Unwrap() error {
	return err.Cause
}
