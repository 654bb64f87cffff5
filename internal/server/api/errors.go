package api

import (
	"errors"
	"net/http"

	"github.com/latinkbd/kbdswitch/apitypes"
	apierror "github.com/latinkbd/kbdswitch/internal/server/api/error"
)

func problem(status int, detail string) *apitypes.ApiError {
	e := apierror.New(status, detail)
	return &e
}

// Factory helpers returning *apitypes.ApiError (single canonical error type).
func ErrBadRequest(detail string) *apitypes.ApiError { return problem(http.StatusBadRequest, detail) }
func ErrUnauthorized(detail string) *apitypes.ApiError {
	return problem(http.StatusUnauthorized, detail)
}
func ErrNotFound(detail string) *apitypes.ApiError { return problem(http.StatusNotFound, detail) }
func ErrConflict(detail string) *apitypes.ApiError { return problem(http.StatusConflict, detail) }
func ErrInternal(detail string) *apitypes.ApiError {
	return problem(http.StatusInternalServerError, detail)
}

// WrapError normalizes any error into *apitypes.ApiError.
func WrapError(err error) *apitypes.ApiError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*apitypes.ApiError); ok {
		return ae
	}
	var ae apitypes.ApiError
	if errors.As(err, &ae) {
		return &ae
	}
	// Default wrap as internal error
	return ErrInternal(err.Error())
}
