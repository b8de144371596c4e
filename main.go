package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/launchdarkly/spaces-contract-tests/apiclient"
	"github.com/launchdarkly/spaces-contract-tests/fixtures"
	"github.com/launchdarkly/spaces-contract-tests/framework"
	"github.com/launchdarkly/spaces-contract-tests/spacesuite"

	"github.com/fatih/color"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	harness, err := framework.NewTestHarness(
		ctx,
		params.targetURL,
		params.statusTimeout,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %s\n", err)
		os.Exit(1)
	}

	var archives fs.FS = fixtures.BuiltinArchives()
	if params.fixturesDir != "" {
		archives = os.DirFS(params.fixturesDir)
	}
	archiverOpts := []fixtures.Option{fixtures.WithLogger(framework.PrefixedLogger(mainDebugLogger, "[fixtures] "))}
	if params.security {
		archiverOpts = append(archiverOpts, fixtures.WithCredentials(params.superuser, params.superuserPassword))
	}
	archiver := fixtures.NewArchiver(params.storeURL, archives, archiverOpts...)

	client := apiclient.New(harness.TargetBaseURL(), apiclient.WithLogger(mainDebugLogger))

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		Out:                  color.Output,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := spacesuite.RunTestSuite(ctx, client, archiver, spacesuite.Config{
		SecurityEnabled: params.security,
		Superuser:       apiclient.BasicAuth(params.superuser, params.superuserPassword),
	}, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(color.Output, results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests:")
		fmt.Println("  " + params.rerunCommand(os.Args[0], results.Failures))
		os.Exit(1)
	}
}
