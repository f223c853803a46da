// Command adduser registers an account in a persistent backend without going
// through the HTTP sign-up flow.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"flux/internal/backend"
	"flux/internal/config"
	"flux/internal/identity"
	applog "flux/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	defaults := config.Load()

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "account email (required)")
	backendType := fs.String("backend", defaults.DataBackend, "storage backend: sqlite or postgres")
	dbPath := fs.String("db", defaults.SQLiteDBPath, "SQLite database path")
	dbURL := fs.String("database-url", defaults.DatabaseURL, "Postgres connection URL")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stderr, "adduser: -email is required")
		fs.Usage()
		return 2
	}

	cfg := backend.Config{Type: backend.BackendType(*backendType), SQLiteDBPath: *dbPath, DatabaseURL: *dbURL}
	if cfg.Type == backend.MemoryBackend || !cfg.Type.IsValid() {
		fmt.Fprintf(stderr, "adduser: backend %q cannot persist users, use sqlite or postgres\n", *backendType)
		return 2
	}

	p := newPrompter(stdin, stdout)
	password, err := p.password("Password: ")
	if err != nil {
		fmt.Fprintf(stderr, "adduser: read password: %v\n", err)
		return 1
	}
	confirm, err := p.password("Confirm password: ")
	if err != nil {
		fmt.Fprintf(stderr, "adduser: read password: %v\n", err)
		return 1
	}
	if err := identity.ValidateSignUp(*email, password, confirm); err != nil {
		fmt.Fprintf(stderr, "adduser: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := applog.New(applog.Config{Level: slog.LevelWarn, Component: "adduser", Output: stderr})
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "adduser: %v\n", err)
		return 1
	}
	defer func() { _ = be.Cleanup() }()

	// Only SignUp is used, which needs neither the signing secret nor a TTL.
	id, err := identity.NewLocal(be.Users, "", time.Minute).SignUp(ctx, *email, password)
	if errors.Is(err, identity.ErrEmailTaken) {
		fmt.Fprintf(stderr, "adduser: %s is already registered\n", identity.NormalizeEmail(*email))
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "adduser: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Created user %s (%s)\n", id.Email, id.UserID)
	return 0
}

// prompter reads passwords without echo from a terminal and line by line
// from anything else.
type prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, scanner: bufio.NewScanner(in)}
}

func (p *prompter) password(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		return string(b), err
	}
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(p.scanner.Text(), "\r"), nil
}
