package services

// ServiceError is a typed error with an HTTP status code. Controllers map it
// to a JSON {"error": message} body without inspecting the cause.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newServiceError(status int, msg string) *ServiceError {
	return &ServiceError{StatusCode: status, Message: msg}
}
