package types

// SuccessEnvelope is the uniform success payload for every endpoint.
type SuccessEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// ErrorEnvelope is the uniform failure payload for every endpoint.
type ErrorEnvelope struct {
	Success    bool   `json:"success"`
	Code       string `json:"code"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}
