// Package response defines the envelope every HTTP endpoint of the
// ledger API answers with.
package response

// Response wraps endpoint results so clients can branch on Status
// without inspecting HTTP codes. Data carries the payload on success,
// Error the human-readable message on failure; the unused one is
// omitted from the JSON.
type Response struct {
	Status     string      `json:"status"` // "success" or "error"
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps an error message in an error envelope.
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
