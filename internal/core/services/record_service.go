package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/infrastructure/metrics"
)

// SaveRecord creates or updates record in one transaction: FQDN derivation,
// change tracking, validation, then the write.
func (s *dnsService) SaveRecord(ctx context.Context, record *domain.Record) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context) error {
		zone, err := s.repo.GetZoneByID(ctx, record.ZoneID)
		if err != nil {
			return err
		}
		if zone == nil {
			return fmt.Errorf("zone %s: %w", record.ZoneID, domain.ErrNotFound)
		}
		return s.saveRecord(ctx, record, zone)
	})
}

// saveRecord expects to run inside a transaction.
func (s *dnsService) saveRecord(ctx context.Context, record *domain.Record, zone *domain.Zone) error {
	if name, err := domain.Normalize(record.Name); err == nil {
		record.Name = name.String()
	}
	// The fqdn is derived before tracking, so a stale value sent by the caller
	// never counts as a change. A name that does not resolve fails validation.
	fqdn, fqdnErr := domain.ResolveRecordFQDN(record.Name, zone.Name)
	if fqdnErr == nil {
		record.FQDN = fqdn
	}

	changed, known, err := s.recordChanges.ChangedFields(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to load record snapshot: %w", err)
	}
	if known && len(changed) == 0 {
		metrics.EntitySaves.WithLabelValues("record", "noop").Inc()
		return nil
	}

	if err := validateRecord(ctx, record, s.recordValidators); err != nil {
		for _, field := range domain.ValidationFields(err) {
			metrics.ValidationFailures.WithLabelValues("record", field).Inc()
		}
		return err
	}
	if fqdnErr != nil {
		return fqdnErr
	}
	if known && changed.Has("fqdn") {
		metrics.FQDNRecomputations.WithLabelValues("save").Inc()
	}

	now := time.Now()
	record.UpdatedAt = now
	op, action := "update", "UPDATE_RECORD"
	if known {
		if err := s.repo.UpdateRecord(ctx, record); err != nil {
			return err
		}
	} else {
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		record.CreatedAt = now
		op, action = "create", "CREATE_RECORD"
		if err := s.repo.CreateRecord(ctx, record); err != nil {
			return err
		}
	}

	metrics.EntitySaves.WithLabelValues("record", op).Inc()
	s.logger.Debug("record saved", "id", record.ID, "fqdn", record.FQDN, "type", record.Type, "changed", changed.Sorted())
	return s.audit(ctx, action, "RECORD", record.ID, changed)
}

func (s *dnsService) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	records, err := s.repo.ListRecordsForZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	SortRecordsCanonically(records)
	return records, nil
}

// DecoupleAddress runs when an IPAM address goes away. Address records linked to
// it are deleted; any other record only loses the link.
func (s *dnsService) DecoupleAddress(ctx context.Context, addressID string) (deleted int, decoupled int, err error) {
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		records, err := s.repo.ListRecordsForAddress(ctx, addressID)
		if err != nil {
			return err
		}
		for i := range records {
			rec := &records[i]
			if rec.Type.IsAddressType() {
				if err := s.repo.DeleteRecord(ctx, rec.ID); err != nil {
					return err
				}
				deleted++
				if err := s.audit(ctx, "DELETE_RECORD", "RECORD", rec.ID, nil); err != nil {
					return err
				}
				continue
			}
			rec.IPAMIPAddressID = nil
			rec.UpdatedAt = time.Now()
			if err := s.repo.UpdateRecord(ctx, rec); err != nil {
				return err
			}
			decoupled++
			if err := s.audit(ctx, "UPDATE_RECORD", "RECORD", rec.ID, FieldSet{"ipam_ip_address_id": {}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	s.logger.Info("ipam address decoupled", "address_id", addressID, "deleted", deleted, "decoupled", decoupled)
	return deleted, decoupled, nil
}

func (s *dnsService) audit(ctx context.Context, action, resourceType, resourceID string, changed FieldSet) error {
	details := "{}"
	if changed != nil {
		b, err := json.Marshal(map[string][]string{"changed": changed.Sorted()})
		if err != nil {
			return err
		}
		details = string(b)
	}
	return s.repo.SaveAuditLog(ctx, &domain.AuditLog{
		ID:           uuid.New().String(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now(),
	})
}

// SortRecordsCanonically orders records by owner name (RFC 4034 Section 6.1), then type.
func SortRecordsCanonically(records []domain.Record) {
	slices.SortStableFunc(records, func(a, b domain.Record) int {
		an, errA := domain.Normalize(a.FQDN)
		bn, errB := domain.Normalize(b.FQDN)
		if errA == nil && errB == nil {
			if c := domain.CompareCanonical(an, bn); c != 0 {
				return c
			}
		}
		switch {
		case a.Type < b.Type:
			return -1
		case a.Type > b.Type:
			return 1
		}
		return 0
	})
}
