// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of HTTP API contract tests.
//
// The general model is:
//
// 1. The test harness talks to an application under test, which exposes a status resource that
// we poll before starting (see TestHarness).
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results. Contexts can register deferred actions, which is how group-level
// setup and teardown (such as loading and unloading fixtures) is expressed.
//
// The domain-specific code that knows what is being tested is responsible for building the
// requests, providing fixtures, and a domain-specific test API on top of the test context.
package framework
