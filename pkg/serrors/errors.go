package serrors

import "errors"

// BaseError is a sentinel error carrying a stable machine-readable code.
// Wrap it with fmt.Errorf("%w: ...") and match with errors.Is.
type BaseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	LocaleKey string `json:"locale_key,omitempty"`
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// Code returns the code of the first BaseError in err's chain, or fallback.
func Code(err error, fallback string) string {
	var be *BaseError
	if errors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return fallback
}
