// Package types defines the JSON wire envelopes shared by every API
// endpoint. Successful responses carry their payload under "data"; failures
// carry a machine-readable code plus a human-readable message under "error".
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a pkg/errors typed error. Details is only
// populated for codes whose metadata allows exposing them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
