package testutil

import (
	"context"
	"io"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type MockRepo struct {
	mock.Mock
}

var _ ports.DNSRepository = (*MockRepo)(nil)

// WithinTx runs fn directly unless the expectation returns an error.
func (m *MockRepo) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

func (m *MockRepo) GetZone(ctx context.Context, name string) (*domain.Zone, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockRepo) GetZoneByID(ctx context.Context, id string) (*domain.Zone, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockRepo) ListZones(ctx context.Context) ([]domain.Zone, error) {
	args := m.Called()
	return args.Get(0).([]domain.Zone), args.Error(1)
}

func (m *MockRepo) CreateZone(ctx context.Context, zone *domain.Zone) error {
	args := m.Called(zone)
	return args.Error(0)
}

func (m *MockRepo) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	args := m.Called(zone)
	return args.Error(0)
}

func (m *MockRepo) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *MockRepo) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	args := m.Called(zoneID)
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRepo) ListRecordsForAddress(ctx context.Context, addressID string) ([]domain.Record, error) {
	args := m.Called(addressID)
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRepo) CreateRecord(ctx context.Context, record *domain.Record) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockRepo) UpdateRecord(ctx context.Context, record *domain.Record) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockRepo) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRepo) ListRecordsMissingFQDN(ctx context.Context) ([]ports.RecordWithZone, error) {
	args := m.Called()
	return args.Get(0).([]ports.RecordWithZone), args.Error(1)
}

func (m *MockRepo) ListZoneNameserverRecords(ctx context.Context) ([]domain.Record, error) {
	args := m.Called()
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRepo) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	args := m.Called(log)
	return args.Error(0)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

type MockDNSService struct {
	mock.Mock
}

var _ ports.DNSService = (*MockDNSService)(nil)

func (m *MockDNSService) CreateZone(ctx context.Context, zone *domain.Zone) error {
	args := m.Called(zone)
	return args.Error(0)
}

func (m *MockDNSService) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	args := m.Called(zone)
	return args.Error(0)
}

func (m *MockDNSService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	args := m.Called()
	return args.Get(0).([]domain.Zone), args.Error(1)
}

func (m *MockDNSService) FindZoneForName(ctx context.Context, name string) (*domain.Zone, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockDNSService) FindParentZone(ctx context.Context, name string) (*domain.Zone, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockDNSService) SaveRecord(ctx context.Context, record *domain.Record) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockDNSService) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	args := m.Called(zoneID)
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockDNSService) DecoupleAddress(ctx context.Context, addressID string) (int, int, error) {
	args := m.Called(addressID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockDNSService) ImportZone(ctx context.Context, r io.Reader, zoneName string) (*domain.Zone, int, error) {
	args := m.Called(r, zoneName)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*domain.Zone), args.Int(1), args.Error(2)
}

func (m *MockDNSService) HealthCheck(ctx context.Context) map[string]error {
	args := m.Called()
	return args.Get(0).(map[string]error)
}
