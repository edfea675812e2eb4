package types

// SuccessEnvelope wraps successful JSON responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps error JSON responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError carries the stable machine-checkable code plus a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
