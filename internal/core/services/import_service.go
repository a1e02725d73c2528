package services

import (
	"context"
	"fmt"
	"io"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/dns/master"
)

// ImportZone reads a master file and saves its records into the zone called
// zoneName. SOA entries are skipped because the zone owns its SOA. Entries that
// already exist with the same name, type and value are left alone, so importing
// the same file twice writes nothing the second time. Either every entry is
// saved or none is.
func (s *dnsService) ImportZone(ctx context.Context, r io.Reader, zoneName string) (*domain.Zone, int, error) {
	origin, err := domain.Normalize(zoneName)
	if err != nil {
		return nil, 0, err
	}
	origin = origin.Absolute()

	data, err := master.NewMasterParser(origin.String()).Parse(r)
	if err != nil {
		return nil, 0, &domain.FormatError{Input: zoneName, Reason: err.Error()}
	}

	var zone *domain.Zone
	created := false
	imported := 0
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		zone, err = s.repo.GetZone(ctx, origin.String())
		if err != nil {
			return err
		}
		if zone == nil {
			zone = &domain.Zone{Name: origin.String()}
			s.prepareZone(zone)
			zone.DefaultTTL = s.defaultTTL
			if err := s.validateZone(ctx, zone); err != nil {
				return err
			}
			if err := s.createZone(ctx, zone); err != nil {
				return err
			}
			created = true
		}

		existing, err := s.repo.ListRecordsForZone(ctx, zone.ID)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(existing))
		for _, rec := range existing {
			seen[recordKey(rec.FQDN, rec.Type, rec.Value)] = struct{}{}
		}

		for _, entry := range data.Entries {
			if entry.Type == domain.TypeSOA {
				continue
			}
			rec, err := s.entryToRecord(entry, zone)
			if err != nil {
				return err
			}
			key := recordKey(entry.Owner, rec.Type, rec.Value)
			if _, ok := seen[key]; ok {
				continue
			}
			if err := s.saveRecord(ctx, rec, zone); err != nil {
				return fmt.Errorf("line %d: %w", entry.Line, err)
			}
			seen[key] = struct{}{}
			imported++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	if created {
		s.invalidate(ctx, zone.Name)
	}
	s.logger.Info("zone imported", "zone", zone.Name, "records", imported, "created", created)
	return zone, imported, nil
}

func (s *dnsService) entryToRecord(entry master.Entry, zone *domain.Zone) (*domain.Record, error) {
	owner, err := domain.Normalize(entry.Owner)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", entry.Line, err)
	}
	zoneName, err := domain.Normalize(zone.Name)
	if err != nil {
		return nil, err
	}
	rel, err := domain.RelativeTo(owner, zoneName)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", entry.Line, err)
	}

	rec := &domain.Record{
		ZoneID: zone.ID,
		Name:   rel.String(),
		Type:   entry.Type,
		Value:  entry.Data,
	}
	// A TTL equal to the zone default is stored as inherited.
	if entry.TTL != zone.DefaultTTL {
		ttl := entry.TTL
		rec.TTL = &ttl
	}
	return rec, nil
}

func recordKey(fqdn string, t domain.RecordType, value string) string {
	return fqdn + "|" + string(t) + "|" + value
}
