package response

// GenerationError is returned if the generation endpoint responded successfully but without usable images
type GenerationError struct {
	Message string
	Cause   error
}

func (err *GenerationError) Error() string {
	if err.Cause != nil {
		return err.Message + ": " + err.Cause.Error()
	}
	return err.Message
}

func (err *GenerationError) Unwrap() error {
	return err.Cause
}

// FetchError is returned if an image could not be fetched by its media identifier
type FetchError struct {
	Message string
	Cause   error
}

func (err *FetchError) Error() string {
	if err.Cause != nil {
		return err.Message + ": " + err.Cause.Error()
	}
	return err.Message
}

func (err *FetchError) Unwrap() error {
	return err.Cause
}

// CaptionError is returned if the caption endpoint responded successfully but without captions
type CaptionError struct {
	Message string
	Cause   error
}

func (err *CaptionError) Error() string {
	if err.Cause != nil {
		return err.Message + ": " + err.Cause.Error()
	}
	return err.Message
}

func (err *CaptionError) Unwrap() error {
	return err.Cause
}
