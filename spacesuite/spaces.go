package spacesuite

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// NonExistantSpaceID is a space that is never part of the loaded fixtures.
const NonExistantSpaceID = "not-a-space"

// DefaultSpaceID is the space that exists in every deployment.
const DefaultSpaceID = "default"

// SpacesArchive is the fixture archive that contains the spaces listed in KnownSpaces.
const SpacesArchive = "saved_objects/spaces"

// Space is a space as returned by the application.
type Space struct {
	ID          string
	Name        string
	Description string
	Reserved    bool
}

// KnownSpaces are the spaces in SpacesArchive.
var KnownSpaces = []Space{
	{
		ID:          DefaultSpaceID,
		Name:        "Default Space",
		Description: "This is the default space",
		Reserved:    true,
	},
	{
		ID:          "space_1",
		Name:        "Space 1",
		Description: "This is the first test space",
	},
	{
		ID:          "space_2",
		Name:        "Space 2",
		Description: "This is the second test space",
	},
}

// FindSpace looks up one of the KnownSpaces by ID.
func FindSpace(id string) (Space, bool) {
	for _, s := range KnownSpaces {
		if s.ID == id {
			return s, true
		}
	}
	return Space{}, false
}

// JSON returns the response body that the application produces for this space. The _reserved
// property only appears when it is true.
func (s Space) JSON() ldvalue.Value {
	b := ldvalue.ObjectBuild().
		Set("id", ldvalue.String(s.ID)).
		Set("name", ldvalue.String(s.Name)).
		Set("description", ldvalue.String(s.Description))
	if s.Reserved {
		b = b.Set("_reserved", ldvalue.Bool(true))
	}
	return b.Build()
}

// URLPrefix returns the path prefix for making requests from within a space. The default space
// has no prefix.
func URLPrefix(spaceID string) string {
	if spaceID == "" || spaceID == DefaultSpaceID {
		return ""
	}
	return "/s/" + spaceID
}
