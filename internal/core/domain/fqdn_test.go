package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFQDN(t *testing.T) {
	tests := []struct {
		record, zone, want string
	}{
		{"www", "example.com.", "www.example.com."},
		{"www", "example.com", "www.example.com."},
		{"@", "example.com.", "example.com."},
		{"_sip._tcp", "Example.com.", "_sip._tcp.example.com."},
		{"1", "0-25.2.0.192.in-addr.arpa.", "1.0-25.2.0.192.in-addr.arpa."},
		{"host", ".", "host."},
		{"WWW.example.com.", "example.com.", "www.example.com."},
	}
	for _, tt := range tests {
		t.Run(tt.record+"@"+tt.zone, func(t *testing.T) {
			got, err := ResolveRecordFQDN(tt.record, tt.zone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFQDN_SuffixInvariant(t *testing.T) {
	zones := []string{"example.com.", "a.b.c", "in-addr.arpa."}
	recs := []string{"@", "x", "deep.er.name", "*"}
	for _, z := range zones {
		zone := MustNormalize(z)
		for _, r := range recs {
			fqdn, err := ResolveFQDN(MustNormalize(r), zone)
			require.NoError(t, err)
			assert.True(t, fqdn.IsAbsolute())
			assert.True(t, IsSuffixOf(zone, fqdn), "%s must end with %s", fqdn, zone)
			labels := fqdn.Labels()
			assert.Equal(t, zone.Labels(), labels[len(labels)-zone.Len():])
		}
	}
}

func TestResolveFQDN_Idempotent(t *testing.T) {
	for _, tc := range [][2]string{{"mail", "example.org"}, {"@", "example.org."}, {"a.b", "c.d."}} {
		first, err := ResolveFQDN(MustNormalize(tc[0]), MustNormalize(tc[1]))
		require.NoError(t, err)

		second, err := ResolveFQDN(MustNormalize(first.String()), Root)
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "%s != %s", first, second)
	}
}

func TestResolveFQDN_Errors(t *testing.T) {
	var fe *FormatError

	_, err := ResolveFQDN(MustNormalize("www.example.net."), MustNormalize("example.com."))
	assert.True(t, errors.As(err, &fe), "absolute name outside the zone")

	_, err = ResolveFQDN(MustNormalize("www"), Apex)
	assert.True(t, errors.As(err, &fe), "empty zone")

	_, err = ResolveRecordFQDN("bad..name", "example.com.")
	assert.True(t, errors.As(err, &fe))

	long := strings.Repeat("a", 63)
	_, err = ResolveFQDN(MustNormalize(long+"."+long), MustNormalize(long+"."+long+".com."))
	assert.True(t, errors.As(err, &fe), "result over 255 octets")
}

func TestRelativeTo(t *testing.T) {
	zone := MustNormalize("example.com.")

	rel, err := RelativeTo(MustNormalize("www.example.com."), zone)
	require.NoError(t, err)
	assert.Equal(t, "www", rel.String())

	rel, err = RelativeTo(zone, zone)
	require.NoError(t, err)
	assert.True(t, rel.IsApex())

	_, err = RelativeTo(MustNormalize("www.example.net."), zone)
	assert.Error(t, err)
}
