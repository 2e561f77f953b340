// Copyright Contributors to the Open Cluster Management project

// Package disconnect reconciles the as-designed data of a circuit in Granite with the
// as-built data read from its devices, and classifies the engineering work of a disconnect.
package disconnect

import (
	"errors"
	"fmt"
	"net/http"

	"k8s.io/klog/v2"
)

// AbortError stops a reconciliation. Code is the HTTP status returned to the caller.
type AbortError struct {
	Code    int
	Message string
}

func (e *AbortError) Error() string {
	return e.Message
}

// ErrDeviceSetMismatch is returned when Granite and the network do not report the same devices.
var ErrDeviceSetMismatch = errors.New("devices in granite and on the network do not match")

func abort(format string, args ...interface{}) *AbortError {
	msg := fmt.Sprintf(format, args...)
	klog.Error(msg)
	return &AbortError{Code: http.StatusInternalServerError, Message: msg}
}

// StatusCode returns the HTTP status for err, 500 unless err carries its own.
func StatusCode(err error) int {
	var ae *AbortError
	if errors.As(err, &ae) && ae.Code != 0 {
		return ae.Code
	}
	return http.StatusInternalServerError
}
