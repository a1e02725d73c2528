package testutil

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
)

type fakeTxKey struct{}

var errDuplicate = errors.New("duplicate key value")

// FakeStore is an in-memory ports.DNSRepository. WithinTx snapshots the whole
// store and restores it when fn fails, so rollback behaves like a database.
// Nested WithinTx calls join the outer transaction.
type FakeStore struct {
	mu        sync.Mutex
	zones     map[string]domain.Zone
	records   map[string]domain.Record
	auditLogs []domain.AuditLog

	PingErr error
	// FailUpdateRecord, when set, is consulted before every record update.
	FailUpdateRecord func(rec *domain.Record) error

	Updates int
}

var _ ports.DNSRepository = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{
		zones:   make(map[string]domain.Zone),
		records: make(map[string]domain.Record),
	}
}

func (s *FakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	zones := cloneMap(s.zones)
	records := cloneMap(s.records)
	logs := slices.Clone(s.auditLogs)
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.zones, s.records, s.auditLogs = zones, records, logs
		s.mu.Unlock()
		return err
	}
	return nil
}

// Pointer fields are copied so callers never alias stored rows.
func copyRecord(r domain.Record) domain.Record {
	if r.TTL != nil {
		ttl := *r.TTL
		r.TTL = &ttl
	}
	if r.IPAMIPAddressID != nil {
		id := *r.IPAMIPAddressID
		r.IPAMIPAddressID = &id
	}
	return r
}

func copyZone(z domain.Zone) domain.Zone {
	if z.RFC2317Prefix != nil {
		p := *z.RFC2317Prefix
		z.RFC2317Prefix = &p
	}
	if z.RFC2317ParentZoneID != nil {
		id := *z.RFC2317ParentZoneID
		z.RFC2317ParentZoneID = &id
	}
	return z
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PutZone stores zone as is, bypassing any service logic.
func (s *FakeStore) PutZone(zone domain.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[zone.ID] = copyZone(zone)
}

// PutRecord stores rec as is, bypassing any service logic.
func (s *FakeStore) PutRecord(rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = copyRecord(rec)
}

// Record returns the stored copy of a record.
func (s *FakeStore) Record(id string) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return copyRecord(rec), ok
}

// Records returns every stored record ordered by ID.
func (s *FakeStore) Records() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecords(func(domain.Record) bool { return true })
}

func (s *FakeStore) AuditLogs() []domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.auditLogs)
}

func (s *FakeStore) sortedRecords(keep func(domain.Record) bool) []domain.Record {
	var out []domain.Record
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b domain.Record) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (s *FakeStore) GetZone(ctx context.Context, name string) (*domain.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, z := range s.zones {
		if strings.EqualFold(z.Name, name) {
			z = copyZone(z)
			return &z, nil
		}
	}
	return nil, nil
}

func (s *FakeStore) GetZoneByID(ctx context.Context, id string) (*domain.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[id]
	if !ok {
		return nil, nil
	}
	z = copyZone(z)
	return &z, nil
}

func (s *FakeStore) ListZones(ctx context.Context) ([]domain.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, copyZone(z))
	}
	slices.SortFunc(out, func(a, b domain.Zone) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *FakeStore) CreateZone(ctx context.Context, zone *domain.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, z := range s.zones {
		if z.ID == zone.ID || strings.EqualFold(z.Name, zone.Name) {
			return &domain.ConstraintError{Constraint: "dns_zones_name_key", Err: errDuplicate}
		}
	}
	s.zones[zone.ID] = copyZone(*zone)
	return nil
}

func (s *FakeStore) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[zone.ID]; !ok {
		return domain.ErrNotFound
	}
	s.zones[zone.ID] = copyZone(*zone)
	return nil
}

func (s *FakeStore) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	rec = copyRecord(rec)
	return &rec, nil
}

func (s *FakeStore) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecords(func(r domain.Record) bool { return r.ZoneID == zoneID }), nil
}

func (s *FakeStore) ListRecordsForAddress(ctx context.Context, addressID string) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecords(func(r domain.Record) bool {
		return r.IPAMIPAddressID != nil && *r.IPAMIPAddressID == addressID
	}), nil
}

func (s *FakeStore) CreateRecord(ctx context.Context, record *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return &domain.ConstraintError{Constraint: "dns_records_pkey", Err: errDuplicate}
	}
	if _, ok := s.zones[record.ZoneID]; !ok {
		return &domain.ConstraintError{Constraint: "dns_records_zone_id_fkey", Err: domain.ErrNotFound}
	}
	s.records[record.ID] = copyRecord(*record)
	return nil
}

func (s *FakeStore) UpdateRecord(ctx context.Context, record *domain.Record) error {
	if s.FailUpdateRecord != nil {
		if err := s.FailUpdateRecord(record); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return domain.ErrNotFound
	}
	s.records[record.ID] = copyRecord(*record)
	s.Updates++
	return nil
}

func (s *FakeStore) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *FakeStore) ListRecordsMissingFQDN(ctx context.Context) ([]ports.RecordWithZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.RecordWithZone
	for _, rec := range s.sortedRecords(func(r domain.Record) bool { return r.FQDN == "" }) {
		out = append(out, ports.RecordWithZone{Record: rec, ZoneName: s.zones[rec.ZoneID].Name})
	}
	return out, nil
}

func (s *FakeStore) ListZoneNameserverRecords(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecords(func(r domain.Record) bool { return r.Type == domain.TypeNS }), nil
}

func (s *FakeStore) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, *log)
	return nil
}

func (s *FakeStore) Ping(ctx context.Context) error {
	return s.PingErr
}
