package framework

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const statusPath = "/api/status"
const statusPollInterval = time.Millisecond * 100

// TargetInfo is the status information reported by the application under test.
type TargetInfo struct {
	Name    string `json:"name"`
	Version struct {
		Number string `json:"number"`
	} `json:"version"`
	Status struct {
		Overall struct {
			State string `json:"state"`
		} `json:"overall"`
	} `json:"status"`
}

// TestHarness holds what we know about the application under test. Creating one verifies that
// the application is up before any tests are run.
type TestHarness struct {
	targetBaseURL string
	targetInfo    TargetInfo
	logger        Logger
}

// NewTestHarness creates a TestHarness instance, and verifies that the application under test is
// responding by polling its status resource until it reports a green state or the timeout elapses.
func NewTestHarness(
	ctx context.Context,
	targetBaseURL string,
	statusQueryTimeout time.Duration,
	debugLogger Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}
	h := &TestHarness{
		targetBaseURL: strings.TrimSuffix(targetBaseURL, "/"),
		logger:        debugLogger,
	}

	info, err := queryTargetInfo(ctx, h.targetBaseURL, statusQueryTimeout, debugLogger, startupOutput)
	if err != nil {
		return nil, err
	}
	h.targetInfo = info
	return h, nil
}

func (h *TestHarness) TargetBaseURL() string {
	return h.targetBaseURL
}

func (h *TestHarness) TargetInfo() TargetInfo {
	return h.targetInfo
}

func queryTargetInfo(
	ctx context.Context,
	baseURL string,
	timeout time.Duration,
	logger Logger,
	output io.Writer,
) (TargetInfo, error) {
	fmt.Fprintf(output, "Connecting to application under test at %s", baseURL)

	client := resty.New().SetBaseURL(baseURL)
	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		var info TargetInfo
		resp, err := client.R().SetContext(ctx).SetResult(&info).Get(statusPath)
		if err == nil && resp.StatusCode() == http.StatusOK && isReady(info) {
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Status query returned: %s %s (%s)\n",
				info.Name, info.Version.Number, info.Status.Overall.State)
			return info, nil
		}
		if err == nil {
			logger.Printf("Status query returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
			err = fmt.Errorf("status code %d, state %q", resp.StatusCode(), info.Status.Overall.State)
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return TargetInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(statusPollInterval):
		}
	}
}

// isReady treats a missing state as ready, since some versions of the application only report
// their name and version.
func isReady(info TargetInfo) bool {
	switch info.Status.Overall.State {
	case "", "green", "available":
		return true
	default:
		return false
	}
}
