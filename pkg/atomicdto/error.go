package atomicdto

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "arena service error"
}

// ErrorResponse is the HTTP error envelope.
type ErrorResponse struct {
	Error *DomainError `json:"error"`
}
