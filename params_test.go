package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParamsDefaults(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"spaces-contract-tests", "-url", "http://localhost:5601"}))

	assert.Equal(t, "http://localhost:5601", p.targetURL)
	assert.Equal(t, "http://localhost:5601", p.storeURL)
	assert.False(t, p.security)
	assert.Equal(t, "elastic", p.superuser)
	assert.Equal(t, defaultStatusQueryTimeout, p.statusTimeout)
	assert.False(t, p.filters.MustMatch.IsDefined())
}

func TestReadParams(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"spaces-contract-tests",
		"-url", "http://kibana:5601", "-es-url", "http://es:9200",
		"-security", "-superuser", "admin", "-superuser-password", "pw",
		"-run", "spaces only", "-skip", "space_2",
		"-status-timeout", "30s", "-debug"}))

	assert.Equal(t, "http://es:9200", p.storeURL)
	assert.True(t, p.security)
	assert.Equal(t, "admin", p.superuser)
	assert.Equal(t, "pw", p.superuserPassword)
	assert.Equal(t, 30*time.Second, p.statusTimeout)
	assert.True(t, p.debug)
	assert.True(t, p.filters.MustMatch.AnyMatch("spaces only/x"))
	assert.True(t, p.filters.MustNotMatch.AnyMatch("x/space_2"))
}

func TestReadParamsRequiresURL(t *testing.T) {
	var p commandParams
	assert.False(t, p.Read([]string{"spaces-contract-tests"}))
}

func TestRerunCommand(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"spaces-contract-tests", "-url", "http://localhost:5601", "-security",
		"-superuser-password", "secret"}))

	cmd := p.rerunCommand("./spaces-contract-tests", []framework.TestResult{
		{TestID: framework.TestID{Path: []string{"security and spaces", "not_a_kibana_user can't get default from the default space", "should return 403"}}},
	})

	assert.Equal(t, `./spaces-contract-tests -url http://localhost:5601 -security -superuser elastic `+
		`-run 'security and spaces/not_a_kibana_user can'"'"'t get default from the default space/should return 403'`, cmd)
	assert.NotContains(t, cmd, "secret")
}

func TestConsoleTestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{Out: &buf, DebugOutputOnFailure: true}
	id := framework.TestID{Path: []string{"a", "b"}}
	var debug framework.CapturingLogger
	debug.Printf("request sent")

	logger.TestStarted(id)
	logger.TestError(id, errors.New("line 1\nline 2"))
	logger.TestFinished(id, true, debug.Output())
	logger.TestSkipped(framework.TestID{Path: []string{"c"}}, "not focused")
	logger.TestFinished(framework.TestID{Path: []string{"d"}}, false, debug.Output())

	out := buf.String()
	assert.Contains(t, out, "[a/b]\n  line 1\n  line 2\n  FAILED: a/b\n    DEBUG [")
	assert.Contains(t, out, "] request sent\n")
	assert.Contains(t, out, "  SKIPPED: c (not focused)\n")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("request sent")))
}
