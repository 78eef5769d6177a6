package model

// DataResponse is the standard success envelope: {"data": ...}.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// SuccessResponse is returned by operations with no payload, e.g. delete.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
// Type is the machine-readable tag the presentation layer maps to a form
// field or a general banner.
type ErrorDetail struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Type    string            `json:"type"`
	Fields  map[string]string `json:"fields,omitempty"`
}
