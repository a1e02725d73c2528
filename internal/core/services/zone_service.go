package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/infrastructure/metrics"
)

func (s *dnsService) CreateZone(ctx context.Context, zone *domain.Zone) error {
	s.prepareZone(zone)
	if zone.DefaultTTL == 0 {
		zone.DefaultTTL = s.defaultTTL
	}
	if err := s.validateZone(ctx, zone); err != nil {
		return err
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		return s.createZone(ctx, zone)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, zone.Name)
	s.logger.Info("zone created", "id", zone.ID, "name", zone.Name, "status", zone.Status)
	return nil
}

// createZone expects a prepared, validated zone and an open transaction.
func (s *dnsService) createZone(ctx context.Context, zone *domain.Zone) error {
	if err := s.linkRFC2317Parent(ctx, zone); err != nil {
		return err
	}

	now := time.Now()
	zone.ID = uuid.New().String()
	zone.CreatedAt = now
	zone.UpdatedAt = now
	if err := s.repo.CreateZone(ctx, zone); err != nil {
		return err
	}

	for _, rec := range s.defaultRecords(zone) {
		if err := s.saveRecord(ctx, &rec, zone); err != nil {
			return fmt.Errorf("failed to create default %s record: %w", rec.Type, err)
		}
	}
	metrics.EntitySaves.WithLabelValues("zone", "create").Inc()
	return s.audit(ctx, "CREATE_ZONE", "ZONE", zone.ID, nil)
}

// UpdateZone persists changes to zone. A rename re-derives the FQDN of every
// record in the zone inside the same transaction.
func (s *dnsService) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	s.prepareZone(zone)
	if err := s.validateZone(ctx, zone); err != nil {
		return err
	}

	var oldName string
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		prev, err := s.repo.GetZoneByID(ctx, zone.ID)
		if err != nil {
			return err
		}
		if prev == nil {
			return fmt.Errorf("zone %s: %w", zone.ID, domain.ErrNotFound)
		}
		oldName = prev.Name
		// The parent link is derived; callers do not send it.
		zone.RFC2317ParentZoneID = prev.RFC2317ParentZoneID
		if zone.DefaultTTL == 0 {
			zone.DefaultTTL = prev.DefaultTTL
		}

		changed, _, err := s.zoneChanges.ChangedFields(ctx, zone)
		if err != nil {
			return fmt.Errorf("failed to load zone snapshot: %w", err)
		}
		if len(changed) == 0 {
			metrics.EntitySaves.WithLabelValues("zone", "noop").Inc()
			return nil
		}

		if changed.Has("rfc2317_prefix") {
			if err := s.linkRFC2317Parent(ctx, zone); err != nil {
				return err
			}
		}

		zone.CreatedAt = prev.CreatedAt
		zone.UpdatedAt = time.Now()
		if err := s.repo.UpdateZone(ctx, zone); err != nil {
			return err
		}

		if changed.Has("name") {
			if err := s.rederiveRecordNames(ctx, zone); err != nil {
				return err
			}
		}
		metrics.EntitySaves.WithLabelValues("zone", "update").Inc()
		return s.audit(ctx, "UPDATE_ZONE", "ZONE", zone.ID, changed)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, oldName, zone.Name)
	return nil
}

func (s *dnsService) rederiveRecordNames(ctx context.Context, zone *domain.Zone) error {
	records, err := s.repo.ListRecordsForZone(ctx, zone.ID)
	if err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		fqdn, err := domain.ResolveRecordFQDN(rec.Name, zone.Name)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if fqdn == rec.FQDN {
			continue
		}
		rec.FQDN = fqdn
		rec.UpdatedAt = time.Now()
		if err := s.repo.UpdateRecord(ctx, rec); err != nil {
			return err
		}
		metrics.FQDNRecomputations.WithLabelValues("zone_rename").Inc()
	}
	return nil
}

func (s *dnsService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	return s.repo.ListZones(ctx)
}

// FindZoneForName returns the most specific zone containing name, which may be
// the zone called name itself.
func (s *dnsService) FindZoneForName(ctx context.Context, name string) (*domain.Zone, error) {
	return s.probeZones(ctx, name, true)
}

// FindParentZone returns the most specific zone strictly above name.
func (s *dnsService) FindParentZone(ctx context.Context, name string) (*domain.Zone, error) {
	return s.probeZones(ctx, name, false)
}

func (s *dnsService) probeZones(ctx context.Context, name string, includeSelf bool) (*domain.Zone, error) {
	n, err := domain.Normalize(name)
	if err != nil {
		return nil, err
	}
	// minLabels 0 keeps the root zone as the last candidate.
	for _, candidate := range domain.CandidateParentNames(n.Absolute(), 0, includeSelf) {
		zone, err := s.lookupZone(ctx, candidate.String())
		if err != nil {
			return nil, err
		}
		if zone != nil {
			return zone, nil
		}
	}
	return nil, fmt.Errorf("no zone for %s: %w", n.Absolute(), domain.ErrNotFound)
}

func (s *dnsService) lookupZone(ctx context.Context, name string) (*domain.Zone, error) {
	if s.cache != nil {
		if zone, ok := s.cache.Get(ctx, name); ok {
			metrics.ZoneCacheOperations.WithLabelValues("hit").Inc()
			return zone, nil
		}
		metrics.ZoneCacheOperations.WithLabelValues("miss").Inc()
	}
	zone, err := s.repo.GetZone(ctx, name)
	if err != nil {
		return nil, err
	}
	if zone != nil && s.cache != nil {
		s.cache.Set(ctx, zone)
	}
	return zone, nil
}

func (s *dnsService) invalidate(ctx context.Context, names ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, names...); err != nil {
		s.logger.Warn("zone cache invalidation failed", "names", names, "error", err)
	}
}

// linkRFC2317Parent points a classless zone at the classful reverse zone above it.
func (s *dnsService) linkRFC2317Parent(ctx context.Context, zone *domain.Zone) error {
	zone.RFC2317ParentZoneID = nil
	if zone.RFC2317Prefix == nil {
		return nil
	}
	parentName, err := domain.RFC2317ParentName(*zone.RFC2317Prefix)
	if err != nil {
		return err
	}
	// Read through the repository: inside a transaction the cache may be stale.
	for _, candidate := range domain.CandidateParentNames(parentName, 1, true) {
		parent, err := s.repo.GetZone(ctx, candidate.String())
		if err != nil {
			return err
		}
		if parent != nil && parent.ID != zone.ID {
			zone.RFC2317ParentZoneID = &parent.ID
			return nil
		}
	}
	return nil
}

func (s *dnsService) prepareZone(zone *domain.Zone) {
	// A classless reverse zone sent without a name gets the conventional one.
	if zone.Name == "" && zone.RFC2317Prefix != nil {
		if n, err := domain.RFC2317ZoneName(*zone.RFC2317Prefix); err == nil {
			zone.Name = n.String()
		}
	}
	if n, err := domain.Normalize(zone.Name); err == nil {
		zone.Name = n.Absolute().String()
	} else if zone.Name != "" && !strings.HasSuffix(zone.Name, ".") {
		zone.Name += "."
	}
	if zone.Status == "" {
		zone.Status = domain.ZoneStatusActive
	}
}

func (s *dnsService) validateZone(ctx context.Context, zone *domain.Zone) error {
	err := validateZone(ctx, zone, s.zoneValidators)
	for _, field := range domain.ValidationFields(err) {
		metrics.ValidationFailures.WithLabelValues("zone", field).Inc()
	}
	return err
}

// defaultRecords are the NS and SOA records every new zone starts with.
func (s *dnsService) defaultRecords(zone *domain.Zone) []domain.Record {
	if len(s.nameservers) == 0 {
		return nil
	}
	records := make([]domain.Record, 0, len(s.nameservers)+1)
	if s.soaMName != "" && s.soaRName != "" {
		// Format: "mname rname serial refresh retry expire minimum"
		soa := fmt.Sprintf("%s %s %s 3600 600 1209600 %d",
			s.soaMName, s.soaRName, time.Now().Format("2006010201"), zone.DefaultTTL)
		records = append(records, domain.Record{ZoneID: zone.ID, Name: "@", Type: domain.TypeSOA, Value: soa})
	}
	for _, ns := range s.nameservers {
		records = append(records, domain.Record{ZoneID: zone.ID, Name: "@", Type: domain.TypeNS, Value: ns})
	}
	return records
}
