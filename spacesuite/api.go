package spacesuite

import (
	"context"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"
	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/stretchr/testify/require"
)

// FixtureLoader loads and unloads named datasets in the backing store.
type FixtureLoader interface {
	Load(ctx context.Context, name string) error
	Unload(ctx context.Context, name string) error
}

// HTTPClient is the part of apiclient.Client that the tests use.
type HTTPClient interface {
	Get(ctx context.Context, req apiclient.GetRequest) (*apiclient.Response, error)
}

// ResponseValidator checks the body of a response that already had the expected status. It
// reports mismatches through t, so it can be used with a *T or a *testing.T.
type ResponseValidator func(t require.TestingT, resp *apiclient.Response)

// TestDefinition describes one request and what it should produce.
type TestDefinition struct {
	// Auth is sent as basic auth if it is defined.
	Auth apiclient.Credentials
	// CurrentSpaceID is the space whose URL the request is made from.
	CurrentSpaceID string
	// SpaceID is the space being requested.
	SpaceID string
	Tests   GetTests
}

type GetTests struct {
	Default GetTestExpectation
}

type GetTestExpectation struct {
	StatusCode int
	Response   ResponseValidator
}

// T represents a test or subtest in the spaces test suite.
//
// It implements require.TestingT, so assertions can be made against it as if it were a
// *testing.T. The test runner itself is provided by the framework package.
type T struct {
	context *framework.Context
}

func newTestScope(c *framework.Context) *T {
	return &T{context: c}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c))
	})
}

// Defer schedules a function to run when this test exits, whether or not it passed.
func (t *T) Defer(fn func()) {
	t.context.Defer(fn)
}

func (t *T) SkipWithReason(reason string) {
	t.context.SkipWithReason(reason)
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

func (t *T) DebugLogger() framework.Logger {
	return t.context.DebugLogger()
}

func (t *T) GoContext() context.Context {
	return t.context.GoContext()
}
