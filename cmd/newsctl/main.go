// Command newsctl runs maintenance tasks against the news database:
// schema migrations and admin token issuance.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/database"
	"github.com/multilingual-news-api/pkg/logger"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const usage = `usage: newsctl <command> [flags]

commands:
  migrate up                 apply all pending migrations
  migrate down               roll back the last migration
  migrate goto --version N   migrate to version N
  migrate version            print the applied schema version
  token --email E [--ttl D]  print a signed admin bearer token
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	switch os.Args[1] {
	case "migrate":
		err = runMigrate(cfg, log, os.Args[2:])
	case "token":
		err = runToken(cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

func runMigrate(cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	path := fs.String("path", cfg.Server.MigrationsPath, "migrations directory")
	version := fs.Uint("version", 0, "target version for goto")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("migrate needs exactly one of: up, down, goto, version")
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	switch fs.Arg(0) {
	case "up":
		return db.RunMigrations(*path)
	case "down":
		return db.MigrateDown(*path)
	case "goto":
		if *version == 0 {
			return fmt.Errorf("goto needs --version")
		}
		return db.MigrateToVersion(*path, *version)
	case "version":
		v, dirty, err := db.SchemaVersion(*path)
		if err != nil {
			return err
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q", fs.Arg(0))
	}
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	email := fs.String("email", cfg.Auth.AdminEmail, "admin email carried in the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("token needs --email or ADMIN_EMAIL")
	}

	token, err := auth.New(cfg.Auth).IssueToken(*email, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
