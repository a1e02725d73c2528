package services

import (
	"context"
	"testing"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRecord_Create(t *testing.T) {
	svc, store := newTestService(t, Options{})
	zone := mustCreateZone(t, svc, "example.com.")

	rec := &domain.Record{ZoneID: zone.ID, Name: "WWW", Type: domain.TypeA, Value: "192.0.2.1"}
	require.NoError(t, svc.SaveRecord(context.Background(), rec))

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "www", rec.Name)
	assert.Equal(t, "www.example.com.", rec.FQDN)
	assert.False(t, rec.CreatedAt.IsZero())

	stored, ok := store.Record(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "www.example.com.", stored.FQDN)

	logs := store.AuditLogs()
	last := logs[len(logs)-1]
	assert.Equal(t, "CREATE_RECORD", last.Action)
	assert.Equal(t, rec.ID, last.ResourceID)
	assert.Equal(t, "{}", last.Details)
}

func TestSaveRecord_CreateWithCallerID(t *testing.T) {
	svc, store := newTestService(t, Options{})
	zone := mustCreateZone(t, svc, "example.com.")

	rec := &domain.Record{ID: "fixed-id", ZoneID: zone.ID, Name: "@", Type: domain.TypeMX, Value: "10 mail.example.com."}
	require.NoError(t, svc.SaveRecord(context.Background(), rec))

	stored, ok := store.Record("fixed-id")
	require.True(t, ok)
	assert.Equal(t, "example.com.", stored.FQDN)
}

func TestSaveRecord_UpdateOnlyTTL(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")
	rec := &domain.Record{ZoneID: zone.ID, Name: "www", Type: domain.TypeA, Value: "192.0.2.1"}
	require.NoError(t, svc.SaveRecord(ctx, rec))

	update, _ := store.Record(rec.ID)
	update.TTL = intPtr(60)
	require.NoError(t, svc.SaveRecord(ctx, &update))

	stored, _ := store.Record(rec.ID)
	require.NotNil(t, stored.TTL)
	assert.Equal(t, 60, *stored.TTL)
	assert.Equal(t, "www.example.com.", stored.FQDN)

	logs := store.AuditLogs()
	last := logs[len(logs)-1]
	assert.Equal(t, "UPDATE_RECORD", last.Action)
	assert.JSONEq(t, `{"changed":["ttl"]}`, last.Details)
}

func TestSaveRecord_UnchangedSkipsWrite(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")
	rec := &domain.Record{ZoneID: zone.ID, Name: "www", Type: domain.TypeA, Value: "192.0.2.1"}
	require.NoError(t, svc.SaveRecord(ctx, rec))
	logs := len(store.AuditLogs())

	same, _ := store.Record(rec.ID)
	require.NoError(t, svc.SaveRecord(ctx, &same))
	assert.Equal(t, 0, store.Updates)
	assert.Len(t, store.AuditLogs(), logs)
}

func TestSaveRecord_FQDNFollowsNameAndZone(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	example := mustCreateZone(t, svc, "example.com.")
	other := mustCreateZone(t, svc, "example.net.")
	rec := &domain.Record{ZoneID: example.ID, Name: "www", Type: domain.TypeA, Value: "192.0.2.1"}
	require.NoError(t, svc.SaveRecord(ctx, rec))

	renamed, _ := store.Record(rec.ID)
	renamed.Name = "web.dev"
	require.NoError(t, svc.SaveRecord(ctx, &renamed))
	assert.Equal(t, "web.dev.example.com.", renamed.FQDN)

	moved, _ := store.Record(rec.ID)
	moved.ZoneID = other.ID
	require.NoError(t, svc.SaveRecord(ctx, &moved))
	stored, _ := store.Record(rec.ID)
	assert.Equal(t, "web.dev.example.net.", stored.FQDN)
}

func TestSaveRecord_CallerCannotSetFQDN(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")

	rec := &domain.Record{ZoneID: zone.ID, Name: "www", Type: domain.TypeA, Value: "192.0.2.1", FQDN: "evil.example.org."}
	require.NoError(t, svc.SaveRecord(ctx, rec))
	assert.Equal(t, "www.example.com.", rec.FQDN)

	update, _ := store.Record(rec.ID)
	update.FQDN = "evil.example.org."
	require.NoError(t, svc.SaveRecord(ctx, &update))
	stored, _ := store.Record(rec.ID)
	assert.Equal(t, "www.example.com.", stored.FQDN)
}

func TestSaveRecord_StaleFQDNIsNotAChange(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")
	rec := &domain.Record{ZoneID: zone.ID, Name: "www", Type: domain.TypeA, Value: "192.0.2.1"}
	require.NoError(t, svc.SaveRecord(ctx, rec))
	logs := len(store.AuditLogs())

	stale, _ := store.Record(rec.ID)
	stale.FQDN = "www.old-name.example."
	require.NoError(t, svc.SaveRecord(ctx, &stale))
	assert.Equal(t, 0, store.Updates)
	assert.Len(t, store.AuditLogs(), logs)
	assert.Equal(t, "www.example.com.", stale.FQDN)

	stale.FQDN = "www.old-name.example."
	stale.TTL = intPtr(120)
	require.NoError(t, svc.SaveRecord(ctx, &stale))
	assert.Equal(t, 1, store.Updates)
	all := store.AuditLogs()
	assert.JSONEq(t, `{"changed":["ttl"]}`, all[len(all)-1].Details)
	stored, _ := store.Record(rec.ID)
	assert.Equal(t, "www.example.com.", stored.FQDN)
}

func TestSaveRecord_TypeIsImmutable(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")
	rec := &domain.Record{ZoneID: zone.ID, Name: "www", Type: domain.TypeA, Value: "192.0.2.1"}
	require.NoError(t, svc.SaveRecord(ctx, rec))

	update, _ := store.Record(rec.ID)
	update.Type = domain.TypeCNAME
	update.Value = "web.example.com."
	err := svc.SaveRecord(ctx, &update)
	require.Error(t, err)
	assert.Equal(t, []string{"type"}, domain.ValidationFields(err))

	stored, _ := store.Record(rec.ID)
	assert.Equal(t, domain.TypeA, stored.Type)
	assert.Equal(t, "192.0.2.1", stored.Value)

	update.Type = domain.TypeA
	update.Value = "192.0.2.2"
	require.NoError(t, svc.SaveRecord(ctx, &update))
}

func TestSaveRecord_Errors(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")

	err := svc.SaveRecord(ctx, &domain.Record{ZoneID: "missing", Name: "www", Type: domain.TypeA, Value: "192.0.2.1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.SaveRecord(ctx, &domain.Record{ZoneID: zone.ID, Name: "@", Type: domain.TypeCNAME, Value: "other.example.com."})
	assert.Equal(t, []string{"name"}, domain.ValidationFields(err))

	err = svc.SaveRecord(ctx, &domain.Record{ZoneID: zone.ID, Name: "www", Type: domain.TypeAAAA, Value: "192.0.2.1", TTL: intPtr(-1)})
	assert.ElementsMatch(t, []string{"value", "ttl"}, domain.ValidationFields(err))

	assert.Empty(t, store.Records())
}

func TestListRecordsForZone_CanonicalOrder(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")

	for _, rec := range []domain.Record{
		{Name: "www", Type: domain.TypeA, Value: "192.0.2.1"},
		{Name: "@", Type: domain.TypeTXT, Value: "hello"},
		{Name: "a.www", Type: domain.TypeA, Value: "192.0.2.2"},
		{Name: "@", Type: domain.TypeMX, Value: "10 mail.example.com."},
		{Name: "mail", Type: domain.TypeA, Value: "192.0.2.3"},
	} {
		rec.ZoneID = zone.ID
		require.NoError(t, svc.SaveRecord(ctx, &rec))
	}

	records, err := svc.ListRecordsForZone(ctx, zone.ID)
	require.NoError(t, err)
	var got []string
	for _, r := range records {
		got = append(got, r.FQDN+" "+string(r.Type))
	}
	assert.Equal(t, []string{
		"example.com. MX",
		"example.com. TXT",
		"mail.example.com. A",
		"www.example.com. A",
		"a.www.example.com. A",
	}, got)
}

func TestDecoupleAddress(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	zone := mustCreateZone(t, svc, "example.com.")

	addr := "ipam-1"
	other := "ipam-2"
	a := &domain.Record{ZoneID: zone.ID, Name: "host", Type: domain.TypeA, Value: "192.0.2.1", IPAMIPAddressID: &addr}
	cname := &domain.Record{ZoneID: zone.ID, Name: "alias", Type: domain.TypeCNAME, Value: "host.example.com.", IPAMIPAddressID: &addr}
	unrelated := &domain.Record{ZoneID: zone.ID, Name: "other", Type: domain.TypeA, Value: "192.0.2.2", IPAMIPAddressID: &other}
	for _, rec := range []*domain.Record{a, cname, unrelated} {
		require.NoError(t, svc.SaveRecord(ctx, rec))
	}

	deleted, decoupled, err := svc.DecoupleAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 1, decoupled)

	_, ok := store.Record(a.ID)
	assert.False(t, ok)
	got, ok := store.Record(cname.ID)
	require.True(t, ok)
	assert.Nil(t, got.IPAMIPAddressID)
	got, _ = store.Record(unrelated.ID)
	require.NotNil(t, got.IPAMIPAddressID)
	assert.Equal(t, other, *got.IPAMIPAddressID)

	deleted, decoupled, err = svc.DecoupleAddress(ctx, addr)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Zero(t, decoupled)
}
