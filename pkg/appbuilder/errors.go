package appbuilder

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResult means the app has no saved versions.
var ErrEmptyResult = errors.New("no versions")

// FetchFailedError is returned for any non-2xx API response.
type FetchFailedError struct {
	// Op names the call in the message: "versions fetch" or "download".
	Op     string
	Status int
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Op, e.Status)
}

// IsAuthFailure reports whether err is a 401 or 403 from the API.
func IsAuthFailure(err error) bool {
	var ff *FetchFailedError
	if !errors.As(err, &ff) {
		return false
	}
	return ff.Status == http.StatusUnauthorized || ff.Status == http.StatusForbidden
}
