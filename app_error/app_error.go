package app_error

import "github.com/gin-gonic/gin"

type statusError struct {
	error
	status int
}

func (e statusError) Unwrap() error {
	return e.error
}

func (e statusError) HTTPStatus() int {
	return e.status
}

func New(err error, status int) error {
	return statusError{error: err, status: status}
}

// WithHTTPStatus writes err as a JSON error response with the given status.
func WithHTTPStatus(c *gin.Context, err error, status int) {
	if statusErr, ok := err.(statusError); ok {
		status = statusErr.HTTPStatus()
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
