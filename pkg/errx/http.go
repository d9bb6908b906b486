package errx

// HTTPErrorResponse is the JSON body the server writes for an *Error
type HTTPErrorResponse struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       string         `json:"type"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"status_code"`
	RequestID  string         `json:"request_id,omitempty"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse
func (e *Error) ToHTTPResponse() HTTPErrorResponse {
	resp := HTTPErrorResponse{
		Code:       e.Code,
		Message:    e.Message,
		Type:       string(e.Type),
		StatusCode: e.HTTPStatus,
	}
	if len(e.Details) > 0 {
		resp.Details = e.Details
	}
	return resp
}
