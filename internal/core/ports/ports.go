package ports

import (
	"context"
	"io"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
)

// SnapshotFetcher returns the last persisted version of an entity, or
// domain.ErrNotFound when no row exists for key. Implementations read inside the
// transaction carried by ctx, if any.
type SnapshotFetcher[T domain.Entity] interface {
	FetchSnapshot(ctx context.Context, key string) (T, error)
}

// Transactor runs fn inside one transaction. Repository calls made with the
// context passed to fn join that transaction; fn returning an error rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecordWithZone pairs a record with the name of its owning zone for bulk jobs.
type RecordWithZone struct {
	Record   domain.Record
	ZoneName string
}

type DNSRepository interface {
	Transactor

	GetZone(ctx context.Context, name string) (*domain.Zone, error)
	GetZoneByID(ctx context.Context, id string) (*domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
	CreateZone(ctx context.Context, zone *domain.Zone) error
	UpdateZone(ctx context.Context, zone *domain.Zone) error

	GetRecord(ctx context.Context, id string) (*domain.Record, error)
	ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error)
	ListRecordsForAddress(ctx context.Context, addressID string) ([]domain.Record, error)
	CreateRecord(ctx context.Context, record *domain.Record) error
	UpdateRecord(ctx context.Context, record *domain.Record) error
	DeleteRecord(ctx context.Context, id string) error

	ListRecordsMissingFQDN(ctx context.Context) ([]RecordWithZone, error)
	ListZoneNameserverRecords(ctx context.Context) ([]domain.Record, error)

	SaveAuditLog(ctx context.Context, log *domain.AuditLog) error
	Ping(ctx context.Context) error
}

// ZoneCache is a read-through cache for zone lookups by name.
type ZoneCache interface {
	Get(ctx context.Context, name string) (*domain.Zone, bool)
	Set(ctx context.Context, zone *domain.Zone)
	Invalidate(ctx context.Context, names ...string) error
}

type ZoneService interface {
	CreateZone(ctx context.Context, zone *domain.Zone) error
	UpdateZone(ctx context.Context, zone *domain.Zone) error
	ListZones(ctx context.Context) ([]domain.Zone, error)
	FindZoneForName(ctx context.Context, name string) (*domain.Zone, error)
	FindParentZone(ctx context.Context, name string) (*domain.Zone, error)
}

type RecordService interface {
	SaveRecord(ctx context.Context, record *domain.Record) error
	ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error)
	DecoupleAddress(ctx context.Context, addressID string) (deleted int, decoupled int, err error)
}

type ImportService interface {
	// ImportZone loads a master file into the zone called zoneName, creating the
	// zone when it does not exist yet. It returns the zone and the number of
	// records written.
	ImportZone(ctx context.Context, r io.Reader, zoneName string) (*domain.Zone, int, error)
}

type DNSService interface {
	ZoneService
	RecordService
	ImportService
	HealthCheck(ctx context.Context) map[string]error
}
