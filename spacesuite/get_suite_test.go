package spacesuite

import (
	"fmt"
	"testing"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// mockT is a require.TestingT that only counts failures.
type mockT struct {
	errors []string
	failed bool
}

func (m *mockT) Errorf(format string, args ...interface{}) {
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

func (m *mockT) FailNow() {
	m.failed = true
}

func responseWithBody(body ldvalue.Value) *apiclient.Response {
	return &apiclient.Response{Status: 200, Body: body}
}

func parseBody(t *testing.T, s string) ldvalue.Value {
	v := ldvalue.Parse([]byte(s))
	if s != "null" && v.IsNull() {
		t.Fatalf("invalid JSON in test: %s", s)
	}
	return v
}

func assertAccepts(t *testing.T, v ResponseValidator, body ldvalue.Value) {
	t.Helper()
	m := &mockT{}
	v(m, responseWithBody(body))
	assert.Empty(t, m.errors, "validator should have accepted %s", body.JSONString())
}

func assertRejects(t *testing.T, v ResponseValidator, body ldvalue.Value) {
	t.Helper()
	m := &mockT{}
	v(m, responseWithBody(body))
	assert.NotEmpty(t, m.errors, "validator should have rejected %s", body.JSONString())
}

var otherBodies = []string{
	`""`,
	`null`,
	`{}`,
	`"Not Found"`,
	`{"error":"Not Found","statusCode":404}`,
	`{"statusCode":403,"error":"Forbidden","message":"Unauthorized to get default space"}`,
	`{"id":"default","name":"Default Space","description":"This is the default space","_reserved":true}`,
	`{"id":"space_1","name":"Space 1","description":"This is the first test space"}`,
	`{"id":"space_2","name":"Space 2","description":"This is the second test space"}`,
}

func assertAcceptsOnly(t *testing.T, v ResponseValidator, expectedJSON string) {
	t.Helper()
	expected := parseBody(t, expectedJSON)
	assertAccepts(t, v, expected)
	for _, other := range otherBodies {
		body := parseBody(t, other)
		if body.Equal(expected) {
			continue
		}
		assertRejects(t, v, body)
	}
}

func TestCreateExpectResults(t *testing.T) {
	suite := NewGetSuite(nil, nil)

	t.Run("default", func(t *testing.T) {
		assertAcceptsOnly(t, suite.CreateExpectResults("default"),
			`{"id":"default","name":"Default Space","description":"This is the default space","_reserved":true}`)
	})

	t.Run("space_1", func(t *testing.T) {
		assertAcceptsOnly(t, suite.CreateExpectResults("space_1"),
			`{"id":"space_1","name":"Space 1","description":"This is the first test space"}`)
	})

	t.Run("space_2", func(t *testing.T) {
		assertAcceptsOnly(t, suite.CreateExpectResults("space_2"),
			`{"id":"space_2","name":"Space 2","description":"This is the second test space"}`)
	})

	t.Run("extra property", func(t *testing.T) {
		assertRejects(t, suite.CreateExpectResults("space_1"), parseBody(t,
			`{"id":"space_1","name":"Space 1","description":"This is the first test space","_reserved":false}`))
	})

	t.Run("unknown space expects null", func(t *testing.T) {
		v := suite.CreateExpectResults("marketing")
		assertAccepts(t, v, ldvalue.Null())
		assertRejects(t, v, parseBody(t, `{"id":"marketing"}`))
	})
}

func TestCreateExpectEmptyResult(t *testing.T) {
	suite := NewGetSuite(nil, nil)
	v := suite.CreateExpectEmptyResult()

	assertAcceptsOnly(t, v, `""`)
	assertRejects(t, v, ldvalue.Null())
	assertRejects(t, v, ldvalue.ObjectBuild().Build())
	assertRejects(t, v, ldvalue.Value{})
}

func TestCreateExpectNotFoundResult(t *testing.T) {
	suite := NewGetSuite(nil, nil)

	assertAcceptsOnly(t, suite.CreateExpectNotFoundResult(), `{"error":"Not Found","statusCode":404}`)
	assertRejects(t, suite.CreateExpectNotFoundResult(), parseBody(t, `{"error":"Not Found","statusCode":404,"message":"x"}`))
}

func TestCreateExpectRbacForbidden(t *testing.T) {
	suite := NewGetSuite(nil, nil)
	v := suite.CreateExpectRbacForbidden("marketing")

	assertAcceptsOnly(t, v, `{"statusCode":403,"error":"Forbidden","message":"Unauthorized to get marketing space"}`)
	assertRejects(t, v, parseBody(t, `{"statusCode":403,"error":"Forbidden","message":"Unauthorized to get default space"}`))
}

func TestCreateExpectLegacyForbidden(t *testing.T) {
	suite := NewGetSuite(nil, nil)
	v := suite.CreateExpectLegacyForbidden("alice")

	assertAcceptsOnly(t, v, `{"statusCode":403,"error":"Forbidden","message":`+
		`"action [indices:data/read/get] is unauthorized for user [alice]: [security_exception] `+
		`action [indices:data/read/get] is unauthorized for user [alice]"}`)
	assertRejects(t, v, parseBody(t, `{"statusCode":403,"error":"Forbidden","message":`+
		`"action [indices:data/read/get] is unauthorized for user [alice]"}`))
	assertRejects(t, v, parseBody(t, `{"statusCode":403,"error":"Forbidden","message":`+
		`"action [indices:data/read/get] is unauthorized for user [bob]: [security_exception] `+
		`action [indices:data/read/get] is unauthorized for user [bob]"}`))
}

func TestValidatorRejectsMissingResponse(t *testing.T) {
	m := &mockT{}
	NewGetSuite(nil, nil).CreateExpectNotFoundResult()(m, nil)
	assert.NotEmpty(t, m.errors)
}

func TestNonExistantSpaceID(t *testing.T) {
	assert.Equal(t, "not-a-space", NewGetSuite(nil, nil).NonExistantSpaceID())
	_, found := FindSpace(NonExistantSpaceID)
	assert.False(t, found)
}

func TestGetTestBuildsCases(t *testing.T) {
	suite := NewGetSuite(nil, nil)
	def1 := TestDefinition{CurrentSpaceID: "default", SpaceID: "space_1"}
	def2 := TestDefinition{CurrentSpaceID: "space_1", SpaceID: NonExistantSpaceID}

	suite.GetTest("first", def1)
	suite.GetTestOnly("second", def2)

	cases := suite.Cases()
	if assert.Len(t, cases, 2) {
		assert.Equal(t, "first", cases[0].Description)
		assert.Equal(t, Normal, cases[0].Mode)
		assert.Equal(t, "space_1", cases[0].Definition.SpaceID)
		assert.Equal(t, SpacesArchive, cases[0].Fixtures)
		assert.Equal(t, "second", cases[1].Description)
		assert.Equal(t, Focused, cases[1].Mode)
		assert.Equal(t, NonExistantSpaceID, cases[1].Definition.SpaceID)
	}
}
