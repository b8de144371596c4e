package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/alessio/shellescape"
)

const defaultStatusQueryTimeout = time.Second * 10

type commandParams struct {
	targetURL         string
	storeURL          string
	filters           framework.RegexFilters
	security          bool
	superuser         string
	superuserPassword string
	fixturesDir       string
	statusTimeout     time.Duration
	debug             bool
	debugAll          bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&c.targetURL, "url", "", "base URL of the application under test")
	fs.StringVar(&c.storeURL, "es-url", "", "base URL of the backing store (default: same as -url)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.security, "security", false, "run the security and spaces tests instead of the spaces only tests")
	fs.StringVar(&c.superuser, "superuser", "elastic", "superuser name, used for loading fixtures and in the security tests")
	fs.StringVar(&c.superuserPassword, "superuser-password", "changeme", "superuser password")
	fs.StringVar(&c.fixturesDir, "fixtures", "", "directory to read fixture archives from instead of the built-in ones")
	fs.DurationVar(&c.statusTimeout, "status-timeout", defaultStatusQueryTimeout, "how long to wait for the application to be ready")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.targetURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		fs.Usage()
		return false
	}
	if c.storeURL == "" {
		c.storeURL = c.targetURL
	}
	return true
}

// rerunCommand returns a command line that repeats this run for just the specified tests. The
// superuser password is left out.
func (c *commandParams) rerunCommand(program string, failures []framework.TestResult) string {
	var b commandBuilder
	b.add(program, "-url", c.targetURL)
	if c.storeURL != c.targetURL {
		b.add("-es-url", c.storeURL)
	}
	if c.security {
		b.add("-security", "-superuser", c.superuser)
	}
	if c.fixturesDir != "" {
		b.add("-fixtures", c.fixturesDir)
	}
	if c.debug || c.debugAll {
		b.add("-debug")
	}
	for _, f := range failures {
		b.add("-run", regexp.QuoteMeta(f.TestID.String()))
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
