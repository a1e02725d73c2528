package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
)

// RecordValidator checks a candidate record before anything is written.
type RecordValidator interface {
	ValidateRecord(ctx context.Context, rec *domain.Record) error
}

// RecordValidatorFunc adapts a function to RecordValidator.
type RecordValidatorFunc func(ctx context.Context, rec *domain.Record) error

func (f RecordValidatorFunc) ValidateRecord(ctx context.Context, rec *domain.Record) error {
	return f(ctx, rec)
}

// ZoneValidator checks a candidate zone before anything is written.
type ZoneValidator interface {
	ValidateZone(ctx context.Context, zone *domain.Zone) error
}

// ZoneValidatorFunc adapts a function to ZoneValidator.
type ZoneValidatorFunc func(ctx context.Context, zone *domain.Zone) error

func (f ZoneValidatorFunc) ValidateZone(ctx context.Context, zone *domain.Zone) error {
	return f(ctx, zone)
}

// TypeImmutable rejects saves that change the type of a persisted record.
type TypeImmutable struct {
	Snapshots ports.SnapshotFetcher[*domain.Record]
}

func (v TypeImmutable) ValidateRecord(ctx context.Context, rec *domain.Record) error {
	if rec.ID == "" {
		return nil
	}
	prev, err := v.Snapshots.FetchSnapshot(ctx, rec.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load record %s: %w", rec.ID, err)
	}
	if prev.Type != rec.Type {
		return &domain.ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("record type cannot be changed from %s to %s", prev.Type, rec.Type),
		}
	}
	return nil
}

// RecordNameValid requires a well-formed name relative to the zone.
var RecordNameValid = RecordValidatorFunc(func(_ context.Context, rec *domain.Record) error {
	name, err := domain.Normalize(rec.Name)
	if err != nil {
		return &domain.ValidationError{Field: "name", Message: err.Error()}
	}
	if name.IsAbsolute() {
		return &domain.ValidationError{Field: "name", Message: "must be relative to the zone"}
	}
	return nil
})

// RecordValueValid checks the value against the type and the TTL range.
var RecordValueValid = RecordValidatorFunc(func(_ context.Context, rec *domain.Record) error {
	return errors.Join(domain.ValidateRecordValue(rec), domain.ValidateTTL(rec.TTL))
})

// ZoneNameValid applies the zone name rules.
var ZoneNameValid = ZoneValidatorFunc(func(_ context.Context, zone *domain.Zone) error {
	if err := domain.ValidateZoneName(zone.Name); err != nil {
		return &domain.ValidationError{Field: "name", Message: err.Error()}
	}
	return nil
})

// ZoneSettingsValid checks status and default TTL.
var ZoneSettingsValid = ZoneValidatorFunc(func(_ context.Context, zone *domain.Zone) error {
	var ttlErr error
	if zone.DefaultTTL < 0 || zone.DefaultTTL > domain.MaxTTL {
		ttlErr = &domain.ValidationError{Field: "default_ttl", Message: fmt.Sprintf("must be between 0 and %d", domain.MaxTTL)}
	}
	return errors.Join(domain.ValidateZoneStatus(zone.Status), ttlErr)
})

// ZoneRFC2317PrefixValid runs the classless delegation prefix checks.
var ZoneRFC2317PrefixValid = ZoneValidatorFunc(func(_ context.Context, zone *domain.Zone) error {
	if zone.RFC2317Prefix == nil {
		return nil
	}
	return domain.ValidatePrefix("rfc2317_prefix", *zone.RFC2317Prefix, domain.RFC2317Checks...)
})

// DefaultRecordValidators is the record pipeline used by NewDNSService.
func DefaultRecordValidators(snapshots ports.SnapshotFetcher[*domain.Record]) []RecordValidator {
	return []RecordValidator{TypeImmutable{Snapshots: snapshots}, RecordNameValid, RecordValueValid}
}

// DefaultZoneValidators is the zone pipeline used by NewDNSService.
func DefaultZoneValidators() []ZoneValidator {
	return []ZoneValidator{ZoneNameValid, ZoneSettingsValid, ZoneRFC2317PrefixValid}
}

// Validators do not depend on each other, so every one runs and failures are joined.
func validateRecord(ctx context.Context, rec *domain.Record, validators []RecordValidator) error {
	var errs []error
	for _, v := range validators {
		if err := v.ValidateRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateZone(ctx context.Context, zone *domain.Zone, validators []ZoneValidator) error {
	var errs []error
	for _, v := range validators {
		if err := v.ValidateZone(ctx, zone); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
