// Copyright Contributors to the Open Cluster Management project

package categorized

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_format(t *testing.T) {
	err := Granite(IncorrectData, "Node Name", "name: BAD")

	assert.Equal(t, "Granite | Incorrect Data - Node Name: name: BAD", err.Error())
}

func Test_IsCategorized(t *testing.T) {
	assert.True(t, IsCategorized(MDSO(SystemError, ResourceGet, "x")))
	assert.True(t, IsCategorized(fmt.Errorf("wrapped: %w", MDSO(SystemError, ResourceGet, "x"))))
	assert.True(t, IsCategorized(errors.New("SEnSE | Missing Data - Site: none")))
	assert.False(t, IsCategorized(errors.New("boom")))
	assert.False(t, IsCategorized(nil))
}

func Test_Wrap(t *testing.T) {
	wrapped := Wrap("slm.Activate", errors.New("boom"))
	assert.Equal(t, "MDSO | Process Error - Exception Raised: class: slm.Activate reason: Error: boom", wrapped.Error())

	original := MDSO(MissingData, "FQDN", "device: A")
	assert.Same(t, original, Wrap("slm.Activate", original))
}
