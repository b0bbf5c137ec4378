package api

import "fmt"

// GenericMessage is shown when the backend gives no usable detail.
const GenericMessage = "Request failed"

// AuthError is returned for a 401 from the backend. The caller is expected to
// clear the token store and send the user to login.
type AuthError struct {
	Path string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Path)
}

// RequestError covers every other non-2xx status and transport failure.
// Status is 0 when no response arrived.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
