package render

import (
	"net/http"
)

// ErrorBody is the JSON error payload.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error renders an error in the negotiated format. HTML and text clients
// get a plain text body; JSON clients get the structured payload.
func Error(w http.ResponseWriter, format Format, status int, code, message, requestID string) {
	ErrorWithDetails(w, format, status, code, message, nil, requestID)
}

// ErrorWithDetails renders an error with an additional details value,
// typically a list of field errors.
func ErrorWithDetails(w http.ResponseWriter, format Format, status int, code, message string, details any, requestID string) {
	if format == JSON {
		writeJSON(w, status, ErrorBody{
			Error:     ErrorDetail{Code: code, Message: message, Details: details},
			RequestID: requestID,
		})
		return
	}
	http.Error(w, message, status)
}

// Challenge sends a 401 with a Basic authentication challenge.
func Challenge(w http.ResponseWriter, format Format, message, requestID string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="whoyou"`)
	Error(w, format, http.StatusUnauthorized, "UNAUTHORIZED", message, requestID)
}
