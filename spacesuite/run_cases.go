package spacesuite

import (
	"fmt"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"

	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const notFocusedReason = "not focused"

// RunCases runs each case as a subtest of t. If any case is Focused, the others are reported as
// skipped.
func RunCases(t *T, cases []TestCase) {
	focused := false
	for _, c := range cases {
		if c.Mode == Focused {
			focused = true
		}
	}
	for _, c := range cases {
		c := c
		t.Run(c.Description, func(t *T) {
			if focused && c.Mode != Focused {
				t.SkipWithReason(notFocusedReason)
			}
			runCase(t, c)
		})
	}
}

// runCase loads the fixtures, runs the single request, and unloads the fixtures again even if
// loading or the request failed.
func runCase(t *T, c TestCase) {
	ctx := t.GoContext()
	t.Defer(func() {
		if err := c.loader.Unload(ctx, c.Fixtures); err != nil {
			t.Errorf("%s", err)
		}
	})
	require.NoError(t, c.loader.Load(ctx, c.Fixtures))

	def := c.Definition
	expect := def.Tests.Default
	t.Run(fmt.Sprintf("should return %d", expect.StatusCode), func(t *T) {
		resp, err := c.client.Get(t.GoContext(), apiclient.GetRequest{
			Path:         URLPrefix(def.CurrentSpaceID) + "/api/spaces/space/" + def.SpaceID,
			Auth:         def.Auth,
			ExpectStatus: ldvalue.NewOptionalInt(expect.StatusCode),
			Logger:       t.DebugLogger(),
		})
		require.NoError(t, err)
		if expect.Response != nil {
			expect.Response(t, resp)
		}
	})
}
