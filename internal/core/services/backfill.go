package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/poyrazK/zonekeeper/internal/infrastructure/metrics"
)

// Backfiller recomputes derived record fields over the whole table. Each
// procedure runs in a single transaction and aborts on the first row error.
// Procedures are meant to run once, offline, and are not safe to interrupt.
type Backfiller struct {
	repo   ports.DNSRepository
	logger *slog.Logger
}

func NewBackfiller(repo ports.DNSRepository, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{repo: repo, logger: logger}
}

// BackfillFQDN sets the FQDN of every record that has none. Records that already
// carry one are never touched, so a second run changes nothing.
func (b *Backfiller) BackfillFQDN(ctx context.Context) (int, error) {
	updated := 0
	err := b.repo.WithinTx(ctx, func(ctx context.Context) error {
		rows, err := b.repo.ListRecordsMissingFQDN(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			rec := row.Record
			fqdn, err := b.resolve(rec.Name, row.ZoneName)
			if err != nil {
				return fmt.Errorf("record %s: %w", rec.ID, err)
			}
			rec.FQDN = fqdn
			rec.UpdatedAt = time.Now()
			if err := b.repo.UpdateRecord(ctx, &rec); err != nil {
				return fmt.Errorf("record %s: %w", rec.ID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fqdn backfill aborted: %w", err)
	}
	metrics.BackfillRows.WithLabelValues("fqdn").Add(float64(updated))
	b.logger.Info("fqdn backfill complete", "records", updated)
	return updated, nil
}

func (b *Backfiller) resolve(name, zoneName string) (string, error) {
	if name == "" {
		name = "@"
	}
	return domain.ResolveRecordFQDN(name, zoneName)
}

// TTLResetOptions controls ResetNameserverTTL.
type TTLResetOptions struct {
	// DryRun counts the records that would be reset without writing them.
	DryRun bool
}

// ResetNameserverTTL clears the TTL of every NS record so it inherits the zone
// default.
func (b *Backfiller) ResetNameserverTTL(ctx context.Context, opts TTLResetOptions) (int, error) {
	reset := 0
	err := b.repo.WithinTx(ctx, func(ctx context.Context) error {
		records, err := b.repo.ListZoneNameserverRecords(ctx)
		if err != nil {
			return err
		}
		for i := range records {
			rec := &records[i]
			if rec.TTL == nil {
				continue
			}
			reset++
			if opts.DryRun {
				continue
			}
			rec.TTL = nil
			rec.UpdatedAt = time.Now()
			if err := b.repo.UpdateRecord(ctx, rec); err != nil {
				return fmt.Errorf("record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("nameserver ttl reset aborted: %w", err)
	}
	if !opts.DryRun {
		metrics.BackfillRows.WithLabelValues("ns_ttl_reset").Add(float64(reset))
	}
	b.logger.Info("nameserver ttl reset complete", "records", reset, "dry_run", opts.DryRun)
	return reset, nil
}

// RunFQDN is BackfillFQDN shaped as a migration step.
func (b *Backfiller) RunFQDN(ctx context.Context) error {
	_, err := b.BackfillFQDN(ctx)
	return err
}

// RunNameserverTTLReset is ResetNameserverTTL shaped as a migration step.
func (b *Backfiller) RunNameserverTTLReset(ctx context.Context) error {
	_, err := b.ResetNameserverTTL(ctx, TTLResetOptions{})
	return err
}
