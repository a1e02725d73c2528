package services

import (
	"context"
	"log/slog"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
)

// Options configures NewDNSService. Zero values fall back to defaults.
type Options struct {
	Logger *slog.Logger
	Cache  ports.ZoneCache

	// RecordFields and ZoneFields are the change-tracked field sets. They are
	// computed once at startup; NewDNSService derives them when left nil.
	RecordFields FieldSet
	ZoneFields   FieldSet

	RecordValidators []RecordValidator
	ZoneValidators   []ZoneValidator

	Nameservers []string // NS targets added to new zones
	SOAMName    string
	SOARName    string
	DefaultTTL  int
}

type dnsService struct {
	repo   ports.DNSRepository
	cache  ports.ZoneCache
	logger *slog.Logger

	recordChanges *ChangeTracker[*domain.Record]
	zoneChanges   *ChangeTracker[*domain.Zone]

	recordValidators []RecordValidator
	zoneValidators   []ZoneValidator

	nameservers []string
	soaMName    string
	soaRName    string
	defaultTTL  int
}

func NewDNSService(repo ports.DNSRepository, opts Options) ports.DNSService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RecordFields == nil {
		opts.RecordFields = NewFieldSet(domain.Record{}, "id")
	}
	if opts.ZoneFields == nil {
		opts.ZoneFields = NewFieldSet(domain.Zone{}, "id")
	}
	records := RecordSnapshots(repo)
	if opts.RecordValidators == nil {
		opts.RecordValidators = DefaultRecordValidators(records)
	}
	if opts.ZoneValidators == nil {
		opts.ZoneValidators = DefaultZoneValidators()
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = 3600
	}
	if opts.SOAMName == "" && len(opts.Nameservers) > 0 {
		opts.SOAMName = opts.Nameservers[0]
	}

	return &dnsService{
		repo:             repo,
		cache:            opts.Cache,
		logger:           opts.Logger,
		recordChanges:    NewChangeTracker(opts.RecordFields, records),
		zoneChanges:      NewChangeTracker(opts.ZoneFields, ZoneSnapshots(repo)),
		recordValidators: opts.RecordValidators,
		zoneValidators:   opts.ZoneValidators,
		nameservers:      opts.Nameservers,
		soaMName:         opts.SOAMName,
		soaRName:         opts.SOARName,
		defaultTTL:       opts.DefaultTTL,
	}
}

func (s *dnsService) HealthCheck(ctx context.Context) map[string]error {
	checks := map[string]error{
		"database": s.repo.Ping(ctx),
	}
	if pinger, ok := s.cache.(interface{ Ping(context.Context) error }); ok {
		checks["cache"] = pinger.Ping(ctx)
	}
	return checks
}
