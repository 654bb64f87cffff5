// Package apierror builds problem+json errors for packages the API server
// itself depends on.
package apierror

import (
	"net/http"

	"github.com/latinkbd/kbdswitch/apitypes"
)

// New returns a problem titled after the HTTP status text.
func New(status int, detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: status, Title: http.StatusText(status), Detail: detail}
}

func ErrUnauthorized(detail string) apitypes.ApiError {
	return New(http.StatusUnauthorized, detail)
}
