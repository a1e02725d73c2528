// Package migrations owns the database schema and the data backfills that
// accompany schema versions.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// FS exposes the embedded migration files.
func FS() fs.FS { return files }

// Step is one schema version. After names the step it must follow; the first
// step has none. Backfill, when set, runs once right after the version is applied.
type Step struct {
	Version  uint
	Name     string
	After    string
	Backfill func(ctx context.Context) error
}

// Plan is the ordered list of schema steps.
type Plan []Step

// Validate checks that every step declares its predecessor by name and that
// versions strictly increase.
func (p Plan) Validate() error {
	seen := make(map[string]bool, len(p))
	for i, step := range p {
		if step.Name == "" {
			return fmt.Errorf("step %d has no name", step.Version)
		}
		if seen[step.Name] {
			return fmt.Errorf("step %q declared twice", step.Name)
		}
		seen[step.Name] = true

		if i == 0 {
			if step.After != "" {
				return fmt.Errorf("first step %q cannot follow %q", step.Name, step.After)
			}
			continue
		}
		prev := p[i-1]
		if step.After != prev.Name {
			return fmt.Errorf("step %q must follow %q, declares %q", step.Name, prev.Name, step.After)
		}
		if step.Version <= prev.Version {
			return fmt.Errorf("step %q has version %d, not after %d", step.Name, step.Version, prev.Version)
		}
	}
	return nil
}

// Backfills are the data procedures bound to schema versions.
type Backfills struct {
	FQDN          func(ctx context.Context) error
	NameserverTTL func(ctx context.Context) error
}

// DefaultPlan binds backfills to the embedded schema versions.
func DefaultPlan(b Backfills) Plan {
	return Plan{
		{Version: 1, Name: "create_dns_zones"},
		{Version: 2, Name: "create_dns_records", After: "create_dns_zones"},
		{Version: 3, Name: "add_dns_records_fqdn", After: "create_dns_records", Backfill: b.FQDN},
		{Version: 4, Name: "dns_records_inherit_ttl", After: "add_dns_records_fqdn", Backfill: b.NameserverTTL},
		{Version: 5, Name: "create_audit_logs", After: "dns_records_inherit_ttl"},
	}
}

// migrator is the part of *migrate.Migrate the runner drives.
type migrator interface {
	Migrate(version uint) error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// Runner applies a Plan with golang-migrate.
type Runner struct {
	m      migrator
	plan   Plan
	logger *slog.Logger
}

// NewRunner prepares a runner over db. Every embedded version must have a
// matching step in plan.
func NewRunner(db *sql.DB, plan Plan, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid migration plan: %w", err)
	}

	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("could not create iofs source: %w", err)
	}
	if err := checkVersions(src, plan); err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	m.Log = migrateLogger{logger}
	return &Runner{m: m, plan: plan, logger: logger}, nil
}

func checkVersions(src source.Driver, plan Plan) error {
	known := make(map[uint]bool, len(plan))
	for _, step := range plan {
		known[step.Version] = true
	}
	v, err := src.First()
	for err == nil {
		if !known[v] {
			return fmt.Errorf("migration version %d has no plan step", v)
		}
		delete(known, v)
		v, err = src.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not list migrations: %w", err)
	}
	for v := range known {
		return fmt.Errorf("plan step version %d has no migration file", v)
	}
	return nil
}

// Version reports the applied schema version, 0 for an empty database.
func (r *Runner) Version() (uint, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty", v)
	}
	return v, nil
}

// Up applies every pending step in order, running each step's backfill right
// after its schema change. It stops at the first failure. A failed backfill
// migrates the schema back to the previous version, so the next Up repeats
// both the schema change and the backfill.
func (r *Runner) Up(ctx context.Context) error {
	if len(r.plan) == 0 {
		return nil
	}
	return r.UpTo(ctx, r.plan[len(r.plan)-1].Version)
}

// UpTo is Up limited to steps with versions up to target.
func (r *Runner) UpTo(ctx context.Context, target uint) error {
	current, err := r.Version()
	if err != nil {
		return err
	}

	prev := current
	for _, step := range r.plan {
		if step.Version <= current || step.Version > target {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.m.Migrate(step.Version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration %s: %w", step.Name, err)
		}
		r.logger.Info("schema migrated", "version", step.Version, "step", step.Name)

		if step.Backfill != nil {
			if err := step.Backfill(ctx); err != nil {
				err = fmt.Errorf("backfill for %s: %w", step.Name, err)
				if rbErr := r.revert(prev); rbErr != nil {
					return errors.Join(err, fmt.Errorf("revert to version %d: %w", prev, rbErr))
				}
				r.logger.Warn("backfill failed, schema reverted", "step", step.Name, "version", prev, "error", err)
				return err
			}
			r.logger.Info("backfill applied", "step", step.Name)
		}
		prev = step.Version
	}
	return nil
}

// revert migrates back to version, or removes the whole schema for 0.
func (r *Runner) revert(version uint) error {
	var err error
	if version == 0 {
		err = r.m.Down()
	} else {
		err = r.m.Migrate(version)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Close releases the source and the migration driver. The driver closes the
// *sql.DB it was built from.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l migrateLogger) Verbose() bool { return false }
