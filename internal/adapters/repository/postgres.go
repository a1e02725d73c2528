package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/poyrazK/zonekeeper/internal/infrastructure/metrics"
)

const (
	zoneColumns   = `id, name, status, default_ttl, rfc2317_prefix, rfc2317_parent_zone_id, description, created_at, updated_at`
	recordColumns = `id, zone_id, name, type, value, ttl, fqdn, ipam_ip_address_id, description, created_at, updated_at`
)

// PostgreSQL error codes mapped to domain.ConstraintError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresRepository implements ports.DNSRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.DNSRepository = (*PostgresRepository)(nil)

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithinTx runs fn in a transaction carried by the context handed to fn. A call
// made while a transaction is already open joins it.
func (r *PostgresRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, errTx := r.db.BeginTx(ctx, nil)
	if errTx != nil {
		return errTx
	}
	defer func() {
		if errRollback := tx.Rollback(); errRollback != nil && !errors.Is(errRollback, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction: %v", errRollback)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresRepository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// mapError turns constraint violations into domain.ConstraintError.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation:
			return &domain.ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}

func expectOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func scanZone(row rowScanner) (*domain.Zone, error) {
	var z domain.Zone
	var prefix sql.NullString
	if err := row.Scan(&z.ID, &z.Name, &z.Status, &z.DefaultTTL, &prefix, &z.RFC2317ParentZoneID, &z.Description, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	if prefix.Valid {
		p, err := domain.ParsePrefix(prefix.String)
		if err != nil {
			return nil, fmt.Errorf("zone %s: stored prefix: %w", z.ID, err)
		}
		z.RFC2317Prefix = &p
	}
	return &z, nil
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	if err := row.Scan(&rec.ID, &rec.ZoneID, &rec.Name, &rec.Type, &rec.Value, &rec.TTL, &rec.FQDN, &rec.IPAMIPAddressID, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func prefixArg(p *domain.NetworkPrefix) any {
	if p == nil {
		return nil
	}
	return p.String()
}

func (r *PostgresRepository) queryRecords(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, errQuery := r.q(ctx).QueryContext(ctx, query, args...)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var records []domain.Record
	for rows.Next() {
		rec, errScan := scanRecord(rows)
		if errScan != nil {
			return nil, errScan
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *PostgresRepository) GetZone(ctx context.Context, name string) (*domain.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM dns_zones WHERE LOWER(name) = LOWER($1)`
	z, errRow := scanZone(r.q(ctx).QueryRowContext(ctx, query, name))
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	return z, errRow
}

func (r *PostgresRepository) GetZoneByID(ctx context.Context, id string) (*domain.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM dns_zones WHERE id = $1`
	z, errRow := scanZone(r.q(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	return z, errRow
}

func (r *PostgresRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM dns_zones ORDER BY name`
	rows, errQuery := r.q(ctx).QueryContext(ctx, query)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var zones []domain.Zone
	for rows.Next() {
		z, errScan := scanZone(rows)
		if errScan != nil {
			return nil, errScan
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

func (r *PostgresRepository) CreateZone(ctx context.Context, zone *domain.Zone) error {
	query := `INSERT INTO dns_zones (` + zoneColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q(ctx).ExecContext(ctx, query, zone.ID, zone.Name, zone.Status, zone.DefaultTTL,
		prefixArg(zone.RFC2317Prefix), zone.RFC2317ParentZoneID, zone.Description, zone.CreatedAt, zone.UpdatedAt)
	return mapError(err)
}

func (r *PostgresRepository) UpdateZone(ctx context.Context, zone *domain.Zone) error {
	query := `UPDATE dns_zones SET name = $2, status = $3, default_ttl = $4, rfc2317_prefix = $5,
			  rfc2317_parent_zone_id = $6, description = $7, updated_at = $8 WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query, zone.ID, zone.Name, zone.Status, zone.DefaultTTL,
		prefixArg(zone.RFC2317Prefix), zone.RFC2317ParentZoneID, zone.Description, zone.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res, "zone", zone.ID)
}

func (r *PostgresRepository) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM dns_records WHERE id = $1`
	rec, errRow := scanRecord(r.q(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, errRow
}

func (r *PostgresRepository) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM dns_records WHERE zone_id = $1 ORDER BY id`
	return r.queryRecords(ctx, query, zoneID)
}

func (r *PostgresRepository) ListRecordsForAddress(ctx context.Context, addressID string) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM dns_records WHERE ipam_ip_address_id = $1 ORDER BY id`
	return r.queryRecords(ctx, query, addressID)
}

func (r *PostgresRepository) CreateRecord(ctx context.Context, record *domain.Record) error {
	query := `INSERT INTO dns_records (` + recordColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q(ctx).ExecContext(ctx, query, record.ID, record.ZoneID, record.Name, record.Type, record.Value,
		record.TTL, record.FQDN, record.IPAMIPAddressID, record.Description, record.CreatedAt, record.UpdatedAt)
	return mapError(err)
}

func (r *PostgresRepository) UpdateRecord(ctx context.Context, record *domain.Record) error {
	query := `UPDATE dns_records SET zone_id = $2, name = $3, type = $4, value = $5, ttl = $6, fqdn = $7,
			  ipam_ip_address_id = $8, description = $9, updated_at = $10 WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query, record.ID, record.ZoneID, record.Name, record.Type, record.Value,
		record.TTL, record.FQDN, record.IPAMIPAddressID, record.Description, record.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res, "record", record.ID)
}

func (r *PostgresRepository) DeleteRecord(ctx context.Context, id string) error {
	query := `DELETE FROM dns_records WHERE id = $1`
	res, err := r.q(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "record", id)
}

// ListRecordsMissingFQDN locks the rows it returns until the transaction ends.
func (r *PostgresRepository) ListRecordsMissingFQDN(ctx context.Context) ([]ports.RecordWithZone, error) {
	query := `SELECT r.id, r.zone_id, r.name, r.type, r.value, r.ttl, r.fqdn, r.ipam_ip_address_id,
			  r.description, r.created_at, r.updated_at, z.name
			  FROM dns_records r JOIN dns_zones z ON z.id = r.zone_id
			  WHERE r.fqdn = '' OR r.fqdn IS NULL ORDER BY r.id FOR UPDATE OF r`
	rows, errQuery := r.q(ctx).QueryContext(ctx, query)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var out []ports.RecordWithZone
	for rows.Next() {
		var row ports.RecordWithZone
		rec := &row.Record
		if errScan := rows.Scan(&rec.ID, &rec.ZoneID, &rec.Name, &rec.Type, &rec.Value, &rec.TTL, &rec.FQDN,
			&rec.IPAMIPAddressID, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt, &row.ZoneName); errScan != nil {
			return nil, errScan
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListZoneNameserverRecords(ctx context.Context) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM dns_records WHERE type = $1 ORDER BY id FOR UPDATE`
	return r.queryRecords(ctx, query, string(domain.TypeNS))
}

func (r *PostgresRepository) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, action, resource_type, resource_id, details, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q(ctx).ExecContext(ctx, query, log.ID, log.Action, log.ResourceType, log.ResourceID, log.Details, log.CreatedAt)
	return mapError(err)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	metrics.DBConnectionsActive.Set(float64(r.db.Stats().InUse))
	return r.db.PingContext(ctx)
}
