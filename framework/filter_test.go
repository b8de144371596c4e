package framework

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testID(path ...string) TestID {
	return TestID{Path: path}
}

func TestRegexFiltersWithNoPatternsAllowEverything(t *testing.T) {
	var filters RegexFilters
	assert.True(t, filters.AsFilter(testID("anything", "at all")))
}

func TestRegexFiltersMustMatch(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("should return 404"))

	assert.True(t, filters.AsFilter(testID("spaces only", "x", "should return 404")))
	assert.False(t, filters.AsFilter(testID("spaces only", "x", "should return 200")))
}

func TestRegexFiltersAllowAncestorsOfFullPathPattern(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("spaces only/can get space_1 from the default space"))

	assert.True(t, filters.AsFilter(testID("spaces only")))
	assert.True(t, filters.AsFilter(testID("spaces only", "can get space_1 from the default space")))
	assert.True(t, filters.AsFilter(testID("spaces only", "can get space_1 from the default space", "should return 200")))
	assert.False(t, filters.AsFilter(testID("spaces only", "can get space_2 from the default space")))
	assert.False(t, filters.AsFilter(testID("security and spaces")))
}

func TestRegexFiltersMustNotMatch(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("space_2"))

	assert.True(t, filters.AsFilter(testID("spaces only", "can get space_1 from the default space")))
	assert.False(t, filters.AsFilter(testID("spaces only", "can get space_2 from the default space")))
}

func TestRegexListRejectsInvalidPattern(t *testing.T) {
	var list RegexList
	assert.Error(t, list.Set("("))
	assert.False(t, list.IsDefined())
}

func TestPrintFilterDescription(t *testing.T) {
	var buf bytes.Buffer
	PrintFilterDescription(&buf, RegexFilters{})
	assert.Empty(t, buf.String())

	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("a"))
	require.NoError(t, filters.MustMatch.Set("b"))
	require.NoError(t, filters.MustNotMatch.Set("c"))
	PrintFilterDescription(&buf, filters)
	assert.Contains(t, buf.String(), `skip any not matching "a" or "b"`)
	assert.Contains(t, buf.String(), `skip any matching "c"`)
}
