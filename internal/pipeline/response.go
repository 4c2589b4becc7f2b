package pipeline

import (
	"fmt"
	"net/http"
)

// Response is the fixed result shape both functions hand back to the hosting platform.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// OK builds a success response.
func OK(msg string) Response {
	return Response{StatusCode: http.StatusOK, Body: msg}
}

// Failure builds a failure response with the cause embedded in the message.
func Failure(msg string, err error) Response {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return Response{StatusCode: http.StatusInternalServerError, Body: msg}
}

// Succeeded reports whether the response carries a 2xx status.
func (r Response) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
