package spacesuite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLPrefix(t *testing.T) {
	assert.Equal(t, "", URLPrefix(""))
	assert.Equal(t, "", URLPrefix("default"))
	assert.Equal(t, "/s/space_1", URLPrefix("space_1"))
	assert.Equal(t, "/s/not-a-space", URLPrefix(NonExistantSpaceID))
}

func TestFindSpace(t *testing.T) {
	s, ok := FindSpace("space_2")
	assert.True(t, ok)
	assert.Equal(t, "Space 2", s.Name)

	_, ok = FindSpace("Space_2")
	assert.False(t, ok)
}

func TestSpaceJSONOmitsReservedUnlessTrue(t *testing.T) {
	d, _ := FindSpace("default")
	assert.JSONEq(t,
		`{"id":"default","name":"Default Space","description":"This is the default space","_reserved":true}`,
		d.JSON().JSONString())

	s1, _ := FindSpace("space_1")
	assert.JSONEq(t,
		`{"id":"space_1","name":"Space 1","description":"This is the first test space"}`,
		s1.JSON().JSONString())
}
