package spacesuite

import (
	"fmt"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Mode says how RunCases should treat a TestCase.
type Mode int

const (
	// Normal cases run unless some other case is Focused.
	Normal Mode = iota
	// Focused cases are the only ones that run if there are any.
	Focused
)

func (m Mode) String() string {
	if m == Focused {
		return "focused"
	}
	return "normal"
}

// TestCase is a declarative description of one group of tests, built by GetSuite and run by
// RunCases.
type TestCase struct {
	Description string
	Mode        Mode
	Definition  TestDefinition
	// Fixtures is the archive that is loaded before the group and unloaded after it.
	Fixtures string

	loader FixtureLoader
	client HTTPClient
}

// GetSuite builds test cases for the "get space" endpoint.
type GetSuite struct {
	loader FixtureLoader
	client HTTPClient
	cases  []TestCase
}

// NewGetSuite creates a GetSuite. The loader and client are not used until the cases are run.
func NewGetSuite(loader FixtureLoader, client HTTPClient) *GetSuite {
	return &GetSuite{loader: loader, client: client}
}

// NonExistantSpaceID returns the ID of a space that the fixtures never contain.
func (s *GetSuite) NonExistantSpaceID() string {
	return NonExistantSpaceID
}

// GetTest adds a group that requests definition.SpaceID from within definition.CurrentSpaceID.
func (s *GetSuite) GetTest(description string, definition TestDefinition) {
	s.add(description, Normal, definition)
}

// GetTestOnly is like GetTest, but makes RunCases skip every case that was not added this way.
// It is meant for use while debugging a single test.
func (s *GetSuite) GetTestOnly(description string, definition TestDefinition) {
	s.add(description, Focused, definition)
}

func (s *GetSuite) add(description string, mode Mode, definition TestDefinition) {
	s.cases = append(s.cases, TestCase{
		Description: description,
		Mode:        mode,
		Definition:  definition,
		Fixtures:    SpacesArchive,
		loader:      s.loader,
		client:      s.client,
	})
}

// Cases returns the cases added so far, in order.
func (s *GetSuite) Cases() []TestCase {
	return append([]TestCase(nil), s.cases...)
}

// CreateExpectResults returns a validator that expects the body of one of the KnownSpaces. For
// any other ID it expects a null body, which the application never returns for a successful
// request, so callers should only pass known IDs.
func (s *GetSuite) CreateExpectResults(spaceID string) ResponseValidator {
	expected := ldvalue.Null()
	if space, ok := FindSpace(spaceID); ok {
		expected = space.JSON()
	}
	return expectBody(expected)
}

// CreateExpectEmptyResult returns a validator that expects an empty body. It does not accept
// null or an empty object.
func (s *GetSuite) CreateExpectEmptyResult() ResponseValidator {
	return expectBody(ldvalue.String(""))
}

func (s *GetSuite) CreateExpectNotFoundResult() ResponseValidator {
	return expectBody(ldvalue.ObjectBuild().
		Set("error", ldvalue.String("Not Found")).
		Set("statusCode", ldvalue.Int(404)).
		Build())
}

// CreateExpectRbacForbidden returns a validator for the error that the application's own
// authorization layer produces when a user may not see the space.
func (s *GetSuite) CreateExpectRbacForbidden(spaceID string) ResponseValidator {
	return expectForbidden(fmt.Sprintf("Unauthorized to get %s space", spaceID))
}

// CreateExpectLegacyForbidden returns a validator for the error that the search engine's security
// layer produces when a user without application privileges has no access to the saved objects.
func (s *GetSuite) CreateExpectLegacyForbidden(username string) ResponseValidator {
	action := fmt.Sprintf("action [indices:data/read/get] is unauthorized for user [%s]", username)
	return expectForbidden(fmt.Sprintf("%s: [security_exception] %s", action, action))
}

func expectForbidden(message string) ResponseValidator {
	return expectBody(ldvalue.ObjectBuild().
		Set("statusCode", ldvalue.Int(403)).
		Set("error", ldvalue.String("Forbidden")).
		Set("message", ldvalue.String(message)).
		Build())
}

func expectBody(expected ldvalue.Value) ResponseValidator {
	return func(t require.TestingT, resp *apiclient.Response) {
		if resp == nil {
			assert.Fail(t, "no response to validate")
			return
		}
		assert.JSONEq(t, expected.JSONString(), resp.JSONBody().JSONString(), "unexpected response body")
	}
}
