// Command spaces-stub runs a minimal stand-in for the application and its backing store, so that
// the contract tests can be tried out without a real deployment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/launchdarkly/spaces-contract-tests/stubservice"
)

type params struct {
	port              int
	dbPath            string
	security          bool
	superuser         string
	superuserPassword string
	quiet             bool
}

func (p *params) Read(args []string) error {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.IntVar(&p.port, "port", 8000, "port to listen on")
	fs.StringVar(&p.dbPath, "db", "", "SQLite database file (default: in memory)")
	fs.BoolVar(&p.security, "security", false, "require authentication and enforce privileges")
	fs.StringVar(&p.superuser, "superuser", "elastic", "name of the built-in superuser")
	fs.StringVar(&p.superuserPassword, "superuser-password", "changeme", "password of the built-in superuser")
	fs.BoolVar(&p.quiet, "quiet", false, "do not log each request")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if p.security && p.superuser == "" {
		return errors.New("-superuser must not be empty when -security is set")
	}
	return nil
}

func main() {
	logger := log.New(os.Stdout, "[spaces-stub] ", log.LstdFlags)

	var p params
	if err := p.Read(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	store, err := stubservice.OpenStore(p.dbPath)
	if err != nil {
		logger.Printf("failed to open store: %s", err)
		os.Exit(1)
	}
	defer store.Close()

	cfg := stubservice.Config{
		SecurityEnabled:   p.security,
		SuperuserName:     p.superuser,
		SuperuserPassword: p.superuserPassword,
	}
	if !p.quiet {
		cfg.RequestLogger = logger
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", p.port),
		Handler:           stubservice.New(store, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("Listening on port %d (security enabled: %t)", p.port, p.security)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("server failed: %s", err)
		os.Exit(1)
	}
	logger.Printf("Stopped")
}
