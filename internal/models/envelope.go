package models

import "net/http"

// ErrorBody is the error section every response carries, success included.
type ErrorBody struct {
	Code    ServiceCode `json:"code"`
	Message string      `json:"message"`
}

// ResponseBody is the outbound envelope. ServerResult carries read results
// (purged endpoint lists and the like) and is omitted when nil.
type ResponseBody struct {
	Error        ErrorBody `json:"error"`
	ServerResult any       `json:"serverResult,omitempty"`
}

// NewResponse builds the HTTP status and envelope body for a service code.
// Status is 200 only for the success sentinel, 500 for everything else,
// regardless of how many sub-operations inside the call soft-failed.
func NewResponse(code ServiceCode, serverResult any) (int, ResponseBody) {
	status := http.StatusOK
	if code != CodeSuccess {
		status = http.StatusInternalServerError
	}
	body := ResponseBody{
		Error:        ErrorBody{Code: code, Message: code.Message()},
		ServerResult: serverResult,
	}
	return status, body
}
