// Command backfill applies schema migrations together with their data
// backfills, or reruns a single backfill procedure after a failed run.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/zonekeeper/internal/adapters/migrations"
	"github.com/poyrazK/zonekeeper/internal/adapters/repository"
	"github.com/poyrazK/zonekeeper/internal/config"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/poyrazK/zonekeeper/internal/core/services"
)

const (
	procedureMigrate = "migrate"
	procedureFQDN    = "fqdn"
	procedureNSTTL   = "ns-ttl"
)

type options struct {
	configPath string
	procedure  string
	dryRun     bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to the YAML config file")
	fs.StringVar(&o.procedure, "procedure", procedureMigrate, "migrate, fqdn or ns-ttl")
	fs.BoolVar(&o.dryRun, "dry-run", false, "count the NS records ns-ttl would reset without writing")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch o.procedure {
	case procedureMigrate, procedureFQDN:
		if o.dryRun {
			return o, fmt.Errorf("-dry-run is only supported with -procedure %s", procedureNSTTL)
		}
	case procedureNSTTL:
	default:
		return o, fmt.Errorf("unknown procedure %q", o.procedure)
	}
	return o, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("backfill failed: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	db, err := sql.Open("pgx", cfg.DB.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := repository.NewPostgresRepository(db)

	if opts.procedure == procedureMigrate {
		return migrate(ctx, db, repo, logger, out)
	}
	defer func() {
		if errClose := db.Close(); errClose != nil {
			log.Printf("failed to close database: %v", errClose)
		}
	}()
	return runProcedure(ctx, repo, logger, opts, out)
}

// migrate hands db to the runner, which closes it.
func migrate(ctx context.Context, db *sql.DB, repo ports.DNSRepository, logger *slog.Logger, out io.Writer) error {
	b := services.NewBackfiller(repo, logger)
	runner, err := migrations.NewRunner(db, migrations.DefaultPlan(migrations.Backfills{
		FQDN:          b.RunFQDN,
		NameserverTTL: b.RunNameserverTTLReset,
	}), logger)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if errClose := runner.Close(); errClose != nil {
			log.Printf("failed to close migration runner: %v", errClose)
		}
	}()

	if err := runner.Up(ctx); err != nil {
		return err
	}
	version, err := runner.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema at version %d\n", version)
	return nil
}

func runProcedure(ctx context.Context, repo ports.DNSRepository, logger *slog.Logger, opts options, out io.Writer) error {
	b := services.NewBackfiller(repo, logger)
	switch opts.procedure {
	case procedureFQDN:
		n, err := b.BackfillFQDN(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "fqdn set on %d records\n", n)
	case procedureNSTTL:
		n, err := b.ResetNameserverTTL(ctx, services.TTLResetOptions{DryRun: opts.dryRun})
		if err != nil {
			return err
		}
		if opts.dryRun {
			fmt.Fprintf(out, "would reset ttl on %d NS records\n", n)
		} else {
			fmt.Fprintf(out, "reset ttl on %d NS records\n", n)
		}
	}
	return nil
}
