package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Response is a completed HTTP response.
type Response struct {
	Method  string
	URL     string
	Status  int
	Header  http.Header
	RawBody []byte
	// Body is the decoded response body. See Client.Get for how non-JSON bodies are represented.
	Body ldvalue.Value
}

func (r *Response) StatusCode() int {
	return r.Status
}

func (r *Response) JSONBody() ldvalue.Value {
	return r.Body
}

// UnexpectedStatusError is returned by Client.Get when the response status is not the expected
// one. The response body is included in the message, since it usually explains why.
type UnexpectedStatusError struct {
	Method   string
	URL      string
	Expected int
	Actual   int
	Body     []byte
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("expected %d %q, got %d %q\n    Request: %s %s\n    Response body:\n        %s",
		e.Expected, http.StatusText(e.Expected),
		e.Actual, http.StatusText(e.Actual),
		e.Method, e.URL,
		formatAsPrettyJSON(e.Body),
	)
}

func formatAsPrettyJSON(b []byte) string {
	var prettyBuf bytes.Buffer
	if err := json.Indent(&prettyBuf, b, "        ", "  "); err != nil {
		return string(b)
	}
	return prettyBuf.String()
}
