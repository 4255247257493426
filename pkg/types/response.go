package types

// Envelope is the success body shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    any    `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// ErrorEnvelope is the failure body; Code is the public taxonomy code.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
