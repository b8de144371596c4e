package spacesuite

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"
	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type fakeLoader struct {
	calls     []string
	loadErr   error
	unloadErr error
}

func (f *fakeLoader) Load(ctx context.Context, name string) error {
	f.calls = append(f.calls, "load "+name)
	return f.loadErr
}

func (f *fakeLoader) Unload(ctx context.Context, name string) error {
	f.calls = append(f.calls, "unload "+name)
	return f.unloadErr
}

// fakeClient answers every request with the same status and body, and records the requests.
type fakeClient struct {
	status   int
	body     ldvalue.Value
	err      error
	requests []apiclient.GetRequest
	loader   *fakeLoader
}

func (f *fakeClient) Get(ctx context.Context, req apiclient.GetRequest) (*apiclient.Response, error) {
	f.requests = append(f.requests, req)
	if f.loader != nil {
		f.loader.calls = append(f.loader.calls, "GET "+req.Path)
	}
	if f.err != nil {
		return nil, f.err
	}
	resp := &apiclient.Response{Method: http.MethodGet, URL: req.Path, Status: f.status, Body: f.body}
	if expected, ok := req.ExpectStatus.Get(); ok && expected != f.status {
		return resp, &apiclient.UnexpectedStatusError{Method: http.MethodGet, URL: req.Path, Expected: expected, Actual: f.status}
	}
	return resp, nil
}

func runCases(cases []TestCase) framework.Results {
	return framework.Run(context.Background(), nil, nil, func(c *framework.Context) {
		RunCases(newTestScope(c), cases)
	})
}

func findResult(results framework.Results, path string) (framework.TestResult, bool) {
	for _, r := range results.Tests {
		if r.TestID.String() == path {
			return r, true
		}
	}
	return framework.TestResult{}, false
}

func notFoundBody() ldvalue.Value {
	return ldvalue.ObjectBuild().Set("error", ldvalue.String("Not Found")).Set("statusCode", ldvalue.Int(404)).Build()
}

func TestRunCasePasses(t *testing.T) {
	loader := &fakeLoader{}
	space1, _ := FindSpace("space_1")
	client := &fakeClient{status: 200, body: space1.JSON(), loader: loader}
	suite := NewGetSuite(loader, client)
	suite.GetTest("space_1 from default", TestDefinition{
		CurrentSpaceID: "default",
		SpaceID:        "space_1",
		Tests:          GetTests{Default: GetTestExpectation{StatusCode: 200, Response: suite.CreateExpectResults("space_1")}},
	})

	results := runCases(suite.Cases())

	assert.True(t, results.OK(), "failures: %+v", results.Failures)
	_, found := findResult(results, "space_1 from default/should return 200")
	assert.True(t, found)
	assert.Equal(t, []string{
		"load saved_objects/spaces",
		"GET /api/spaces/space/space_1",
		"unload saved_objects/spaces",
	}, loader.calls)
	require.Len(t, client.requests, 1)
	assert.False(t, client.requests[0].Auth.IsDefined())
	assert.Equal(t, ldvalue.NewOptionalInt(200), client.requests[0].ExpectStatus)
}

func TestRunCaseUsesSpacePrefixAndCredentials(t *testing.T) {
	loader := &fakeLoader{}
	client := &fakeClient{status: 404, body: notFoundBody()}
	suite := NewGetSuite(loader, client)
	suite.GetTest("missing space", TestDefinition{
		Auth:           apiclient.BasicAuth("alice", "secret"),
		CurrentSpaceID: "space_1",
		SpaceID:        NonExistantSpaceID,
		Tests:          GetTests{Default: GetTestExpectation{StatusCode: 404, Response: suite.CreateExpectNotFoundResult()}},
	})

	results := runCases(suite.Cases())

	assert.True(t, results.OK(), "failures: %+v", results.Failures)
	require.Len(t, client.requests, 1)
	assert.Equal(t, "/s/space_1/api/spaces/space/not-a-space", client.requests[0].Path)
	assert.Equal(t, apiclient.BasicAuth("alice", "secret"), client.requests[0].Auth)
}

func TestFixturesAreUnloadedWhenCaseFails(t *testing.T) {
	for name, client := range map[string]*fakeClient{
		"wrong status":    {status: 500, body: ldvalue.String("")},
		"wrong body":      {status: 404, body: ldvalue.String("")},
		"transport error": {err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			loader := &fakeLoader{}
			suite := NewGetSuite(loader, client)
			suite.GetTest("group", TestDefinition{
				SpaceID: NonExistantSpaceID,
				Tests:   GetTests{Default: GetTestExpectation{StatusCode: 404, Response: suite.CreateExpectNotFoundResult()}},
			})

			results := runCases(suite.Cases())

			require.Len(t, results.Failures, 1)
			assert.Equal(t, "group/should return 404", results.Failures[0].TestID.String())
			assert.Equal(t, []string{"load saved_objects/spaces", "unload saved_objects/spaces"}, loader.calls)
		})
	}
}

func TestFailedLoadSkipsRequestButStillUnloads(t *testing.T) {
	loader := &fakeLoader{loadErr: errors.New("store is down")}
	client := &fakeClient{status: 200}
	suite := NewGetSuite(loader, client)
	suite.GetTest("group", TestDefinition{SpaceID: "default",
		Tests: GetTests{Default: GetTestExpectation{StatusCode: 200}}})

	results := runCases(suite.Cases())

	require.Len(t, results.Failures, 1)
	assert.Equal(t, "group", results.Failures[0].TestID.String())
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "store is down")
	assert.Empty(t, client.requests)
	assert.Equal(t, []string{"load saved_objects/spaces", "unload saved_objects/spaces"}, loader.calls)
}

func TestFailedUnloadFailsGroup(t *testing.T) {
	loader := &fakeLoader{unloadErr: errors.New("could not delete index")}
	client := &fakeClient{status: 200, body: ldvalue.String("")}
	suite := NewGetSuite(loader, client)
	suite.GetTest("group", TestDefinition{SpaceID: "default",
		Tests: GetTests{Default: GetTestExpectation{StatusCode: 200, Response: suite.CreateExpectEmptyResult()}}})

	results := runCases(suite.Cases())

	require.Len(t, results.Failures, 1)
	assert.Equal(t, "group", results.Failures[0].TestID.String())
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "could not delete index")
	_, found := findResult(results, "group/should return 200")
	assert.True(t, found)
}

func TestFocusedCasesSkipTheOthers(t *testing.T) {
	loader := &fakeLoader{}
	client := &fakeClient{status: 404, body: notFoundBody()}
	suite := NewGetSuite(loader, client)
	def := TestDefinition{SpaceID: NonExistantSpaceID,
		Tests: GetTests{Default: GetTestExpectation{StatusCode: 404, Response: suite.CreateExpectNotFoundResult()}}}
	suite.GetTest("a", def)
	suite.GetTestOnly("b", def)
	suite.GetTest("c", def)

	var skipped []string
	logger := &recordingTestLogger{onSkip: func(id framework.TestID, reason string) {
		skipped = append(skipped, id.String()+": "+reason)
	}}
	results := framework.Run(context.Background(), nil, logger, func(c *framework.Context) {
		RunCases(newTestScope(c), suite.Cases())
	})

	assert.True(t, results.OK())
	assert.Equal(t, []string{"a: not focused", "c: not focused"}, skipped)
	require.Len(t, client.requests, 1)
	assert.Equal(t, []string{"load saved_objects/spaces", "unload saved_objects/spaces"}, loader.calls)
	passed, _, skippedCount := results.Counts()
	assert.Equal(t, 2, passed) // "b" and "b/should return 404"
	assert.Equal(t, 2, skippedCount)
}

func TestNoFocusedCasesRunsAll(t *testing.T) {
	loader := &fakeLoader{}
	client := &fakeClient{status: 404, body: notFoundBody()}
	suite := NewGetSuite(loader, client)
	def := TestDefinition{SpaceID: NonExistantSpaceID,
		Tests: GetTests{Default: GetTestExpectation{StatusCode: 404}}}
	suite.GetTest("a", def)
	suite.GetTest("b", def)

	results := runCases(suite.Cases())

	assert.True(t, results.OK())
	assert.Len(t, client.requests, 2)
	assert.Equal(t, []string{
		"load saved_objects/spaces", "unload saved_objects/spaces",
		"load saved_objects/spaces", "unload saved_objects/spaces",
	}, loader.calls)
}

type recordingTestLogger struct {
	onSkip func(framework.TestID, string)
}

func (l *recordingTestLogger) TestStarted(framework.TestID)      {}
func (l *recordingTestLogger) TestError(framework.TestID, error) {}
func (l *recordingTestLogger) TestFinished(framework.TestID, bool, framework.CapturedOutput) {
}
func (l *recordingTestLogger) TestSkipped(id framework.TestID, reason string) {
	l.onSkip(id, reason)
}
