package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poyrazK/zonekeeper/internal/core/domain"
)

var (
	zoneCols   = []string{"id", "name", "status", "default_ttl", "rfc2317_prefix", "rfc2317_parent_zone_id", "description", "created_at", "updated_at"}
	recordCols = []string{"id", "zone_id", "name", "type", "value", "ttl", "fqdn", "ipam_ip_address_id", "description", "created_at", "updated_at"}
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_Unit(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("GetZone", func(t *testing.T) {
		rows := sqlmock.NewRows(zoneCols).
			AddRow("z1", "128-25.2.0.192.in-addr.arpa.", "active", 3600, "192.0.2.128/25", "z0", "", now, now)
		mock.ExpectQuery(`SELECT (.+) FROM dns_zones WHERE LOWER\(name\) = LOWER\(\$1\)`).
			WithArgs("128-25.2.0.192.in-addr.arpa.").
			WillReturnRows(rows)

		zone, err := repo.GetZone(ctx, "128-25.2.0.192.in-addr.arpa.")
		if err != nil {
			t.Fatalf("GetZone failed: %v", err)
		}
		if zone == nil || zone.ID != "z1" || zone.Status != domain.ZoneStatusActive {
			t.Fatalf("Unexpected zone: %+v", zone)
		}
		if zone.RFC2317Prefix == nil || zone.RFC2317Prefix.String() != "192.0.2.128/25" {
			t.Errorf("Unexpected prefix: %v", zone.RFC2317Prefix)
		}
		if zone.RFC2317ParentZoneID == nil || *zone.RFC2317ParentZoneID != "z0" {
			t.Errorf("Unexpected parent: %v", zone.RFC2317ParentZoneID)
		}
	})

	t.Run("GetZoneNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM dns_zones WHERE id = \$1`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(zoneCols))

		zone, err := repo.GetZoneByID(ctx, "missing")
		if err != nil || zone != nil {
			t.Errorf("Expected nil, nil; got %+v, %v", zone, err)
		}
	})

	t.Run("CreateZoneDuplicate", func(t *testing.T) {
		zone := &domain.Zone{ID: "z2", Name: "example.com.", Status: domain.ZoneStatusActive, DefaultTTL: 3600, CreatedAt: now, UpdatedAt: now}
		mock.ExpectExec(`INSERT INTO dns_zones`).
			WithArgs("z2", "example.com.", "active", 3600, nil, nil, "", now, now).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "dns_zones_name_key"})

		err := repo.CreateZone(ctx, zone)
		var ce *domain.ConstraintError
		if !errors.As(err, &ce) || ce.Constraint != "dns_zones_name_key" {
			t.Errorf("Expected constraint error, got %v", err)
		}
	})

	t.Run("GetRecordInheritedTTL", func(t *testing.T) {
		rows := sqlmock.NewRows(recordCols).
			AddRow("r1", "z1", "@", "NS", "ns1.example.net.", nil, "example.com.", nil, "", now, now)
		mock.ExpectQuery(`SELECT (.+) FROM dns_records WHERE id = \$1`).
			WithArgs("r1").
			WillReturnRows(rows)

		rec, err := repo.GetRecord(ctx, "r1")
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if rec.TTL != nil || rec.IPAMIPAddressID != nil || rec.Type != domain.TypeNS {
			t.Errorf("Unexpected record: %+v", rec)
		}
	})

	t.Run("UpdateRecordMissing", func(t *testing.T) {
		ttl := 60
		rec := &domain.Record{ID: "gone", ZoneID: "z1", Name: "www", Type: domain.TypeA, Value: "192.0.2.1", TTL: &ttl, FQDN: "www.example.com.", UpdatedAt: now}
		mock.ExpectExec(`UPDATE dns_records SET`).
			WithArgs("gone", "z1", "www", "A", "192.0.2.1", 60, "www.example.com.", nil, "", now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRecord(ctx, rec)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRecordsMissingFQDN", func(t *testing.T) {
		rows := sqlmock.NewRows(append(recordCols, "zone_name")).
			AddRow("r2", "z1", "www", "A", "192.0.2.1", 300, "", nil, "", now, now, "example.com.")
		mock.ExpectQuery(`SELECT (.+) FROM dns_records r JOIN dns_zones z ON z.id = r.zone_id WHERE (.+) FOR UPDATE OF r`).
			WillReturnRows(rows)

		got, err := repo.ListRecordsMissingFQDN(ctx)
		if err != nil {
			t.Fatalf("ListRecordsMissingFQDN failed: %v", err)
		}
		if len(got) != 1 || got[0].ZoneName != "example.com." || got[0].Record.TTL == nil || *got[0].Record.TTL != 300 {
			t.Errorf("Unexpected rows: %+v", got)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresRepository_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitAndJoin", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM dns_records WHERE id = \$1`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM dns_records WHERE id = \$1`).WithArgs("r2").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.DeleteRecord(ctx, "r1"); err != nil {
				return err
			}
			return repo.WithinTx(ctx, func(ctx context.Context) error {
				return repo.DeleteRecord(ctx, "r2")
			})
		})
		if err != nil {
			t.Fatalf("WithinTx failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM dns_records WHERE id = \$1`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		err := repo.WithinTx(ctx, func(ctx context.Context) error {
			if err := repo.DeleteRecord(ctx, "r1"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}
