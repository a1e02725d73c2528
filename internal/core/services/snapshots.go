package services

import (
	"context"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
)

type recordSnapshots struct {
	repo ports.DNSRepository
}

// RecordSnapshots adapts repo to a SnapshotFetcher for records.
func RecordSnapshots(repo ports.DNSRepository) ports.SnapshotFetcher[*domain.Record] {
	return recordSnapshots{repo: repo}
}

func (s recordSnapshots) FetchSnapshot(ctx context.Context, key string) (*domain.Record, error) {
	rec, err := s.repo.GetRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

type zoneSnapshots struct {
	repo ports.DNSRepository
}

// ZoneSnapshots adapts repo to a SnapshotFetcher for zones.
func ZoneSnapshots(repo ports.DNSRepository) ports.SnapshotFetcher[*domain.Zone] {
	return zoneSnapshots{repo: repo}
}

func (s zoneSnapshots) FetchSnapshot(ctx context.Context, key string) (*domain.Zone, error) {
	zone, err := s.repo.GetZoneByID(ctx, key)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, domain.ErrNotFound
	}
	return zone, nil
}
