// Copyright Contributors to the Open Cluster Management project

// Package categorized formats failures into the buckets used for reporting:
// "{SYSTEM} | {CATEGORY} - {SUBCATEGORY}: {detail}".
package categorized

import (
	"errors"
	"fmt"
	"strings"
)

// System level buckets.
const (
	SystemMDSO    = "MDSO"
	SystemGranite = "Granite"
	SystemSEnSE   = "SEnSE"
)

// Category level buckets.
const (
	ConnectivityError = "Connectivity Error"
	SystemError       = "System Error"
	IncorrectData     = "Incorrect Data"
	MissingData       = "Missing Data"
	ProcessError      = "Process Error"
	Unsupported       = "Automation Unsupported"
)

// Sub-category level buckets shared across packages.
const (
	TopologiesData = "Required Topologies Data"
	ResourceGet    = "Resource Get"
	ResourceCreate = "Resource Create"
)

// Prefixes that mark a message as already categorized.
var FormattedSystemLevels = []string{SystemMDSO + " | ", SystemSEnSE + " | ", SystemGranite + " | "}

// Error is a failure sorted into a system, category and subcategory.
type Error struct {
	System      string
	Category    string
	Subcategory string
	Detail      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s | %s - %s: %s", e.System, e.Category, e.Subcategory, e.Detail)
}

// New builds a categorized error for any system.
func New(system, category, subcategory, detail string) *Error {
	return &Error{System: system, Category: category, Subcategory: subcategory, Detail: detail}
}

// MDSO builds a categorized error for the orchestration system, the default bucket.
func MDSO(category, subcategory, detail string) *Error {
	return New(SystemMDSO, category, subcategory, detail)
}

// Granite builds a categorized error for the circuit design database.
func Granite(category, subcategory, detail string) *Error {
	return New(SystemGranite, category, subcategory, detail)
}

// IsCategorized reports whether err is, or carries the text of, a categorized error.
func IsCategorized(err error) bool {
	if err == nil {
		return false
	}
	var ce *Error
	if errors.As(err, &ce) {
		return true
	}
	msg := err.Error()
	for _, level := range FormattedSystemLevels {
		if strings.Contains(msg, level) {
			return true
		}
	}
	return false
}

// Wrap leaves categorized errors untouched and buckets anything else as a process error raised by class.
func Wrap(class string, err error) error {
	if err == nil || IsCategorized(err) {
		return err
	}
	return MDSO(ProcessError, "Exception Raised", fmt.Sprintf("class: %s reason: Error: %s", class, err.Error()))
}
