// Copyright Contributors to the Open Cluster Management project

package vlan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseIDs(t *testing.T) {
	ids, err := ParseIDs("100,105,110-115,122")

	assert.Nil(t, err)
	assert.Equal(t, []int{100, 105, 110, 111, 112, 113, 114, 115, 122}, ids)
}

func Test_ParseIDs_separatorsAndDuplicates(t *testing.T) {
	ids, err := ParseIDs("[20/22]", "21..23", "5", "5")

	assert.Nil(t, err)
	assert.Equal(t, []int{5, 20, 21, 22, 23}, ids)
}

func Test_ParseIDs_emptyTokens(t *testing.T) {
	ids, err := ParseIDs("", "7,,")

	assert.Nil(t, err)
	assert.Equal(t, []int{7}, ids)
}

func Test_ParseIDs_invalid(t *testing.T) {
	_, err := ParseIDs("100,abc")
	assert.NotNil(t, err)

	_, err = ParseIDs("1..99999")
	assert.NotNil(t, err)
}

func Test_ParseIDs_reversedRange(t *testing.T) {
	ids, err := ParseIDs("200-100")

	assert.Nil(t, ids)
	assert.EqualError(t, err, `invalid vlan range "200..100": 200 is greater than 100`)
}

func Test_FormatRanges(t *testing.T) {
	assert.Equal(t, []string{"100", "105", "110..115", "122"}, FormatRanges([]int{100, 105, 110, 111, 112, 113, 114, 115, 122}))
	assert.Equal(t, []string{}, FormatRanges(nil))
	assert.Equal(t, []string{"1..3"}, FormatRanges([]int{3, 1, 2, 2}))
}

// A contiguous range collapses back to first..last.
func Test_Normalize_contiguous(t *testing.T) {
	ranges, err := Normalize("300-310")

	assert.Nil(t, err)
	assert.Equal(t, []string{"300..310"}, ranges)
}

func Test_Compress(t *testing.T) {
	assert.Equal(t, "10,12..13", Compress([]int{10, 12, 13}))
}
