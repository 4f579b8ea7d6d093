// Command tool holds operator helpers for user-service: schema migration,
// password hashing for manual fixes and bulk bearer tokens for load tests.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/security"
)

// swapped in tests
var (
	openDB       = config.NewDB
	migrate      = postgres.Migrate
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const usage = `usage: tool <command> [flags]

commands:
  migrate   apply database migrations (DB_ADDR)
  hash      print the bcrypt hash of a password (prompts when omitted)
  tokens    write signed bearer tokens, one per line`

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "migrate":
		err = runMigrate(args[1:], stdout)
	case "hash":
		err = runHash(args[1:], stdout)
	case "tokens":
		err = runTokens(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s\n", args[0], usage)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("dsn", os.Getenv("DB_ADDR"), "postgres DSN")
	timeout := fs.Duration("timeout", time.Minute, "migration timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("missing -dsn or DB_ADDR")
	}

	db, err := openDB(*dsn, false)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := migrate(ctx, db); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "migrations applied")
	return nil
}

func runHash(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	cost := fs.Int("cost", 12, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var raw string
	switch fs.NArg() {
	case 1:
		raw = fs.Arg(0)
	case 0:
		fd := int(os.Stdin.Fd())
		if !isTerminal(fd) {
			return fmt.Errorf("hash needs a password argument or a terminal")
		}
		fmt.Fprint(stdout, "Password: ")
		b, err := readPassword(fd)
		fmt.Fprintln(stdout)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		raw = string(b)
	default:
		return fmt.Errorf("hash takes at most one password argument")
	}
	if raw == "" {
		return fmt.Errorf("empty password")
	}

	hash, err := security.NewBcryptEncoder(*cost).Encode(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

func runTokens(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	n := fs.Int("n", 1000, "number of tokens")
	out := fs.String("out", "", "output file (stdout when empty)")
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "HS256 secret")
	issuer := fs.String("issuer", os.Getenv("JWT_ISSUER"), "token issuer")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	subject := fs.String("subject", "", "fixed subject; random per token when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return fmt.Errorf("missing -secret or JWT_SECRET")
	}
	if *n <= 0 {
		return fmt.Errorf("-n must be positive")
	}

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	signer := security.NewJWTVerifier(*secret, *issuer)
	for i := 0; i < *n; i++ {
		sub := *subject
		if sub == "" {
			sub = uuid.NewString() + "@load.test"
		}
		tok, err := signer.Sign(sub, domain.RoleUser, *ttl)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(tok + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
