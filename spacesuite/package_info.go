// Package spacesuite contains the contract tests for the "get space by id" endpoint.
//
// GetSuite is a builder: GetTest and GetTestOnly add declarative TestCase descriptors, and the
// CreateExpect methods produce the response validators that those descriptors refer to. Nothing
// runs until the descriptors are handed to RunCases, which registers them with the framework
// package's test runner. RunTestSuite builds the standard scenario catalog this way.
package spacesuite
