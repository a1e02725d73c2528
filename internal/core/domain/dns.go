// Package domain contains the core business logic and entities for zonekeeper.
package domain

import (
	"time"
)

// RecordType represents the type of a DNS record (e.g., A, AAAA, MX).
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeAAAA represents an IPv6 address record.
	TypeAAAA RecordType = "AAAA"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
	// TypeMX represents a mail exchange record.
	TypeMX RecordType = "MX"
	// TypeTXT represents a text record.
	TypeTXT RecordType = "TXT"
	// TypeNS represents a name server record.
	TypeNS RecordType = "NS"
	// TypeSOA represents a start of authority record.
	TypeSOA RecordType = "SOA"
	// TypePTR represents a pointer record.
	TypePTR RecordType = "PTR"
	// TypeSRV represents a service locator record (RFC 2782).
	TypeSRV RecordType = "SRV"
)

// IsAddressType reports whether records of this type are owned by an IPAM address
// and go away together with it.
func (t RecordType) IsAddressType() bool {
	return t == TypeA || t == TypeAAAA || t == TypePTR
}

// ZoneStatus is the administrative state of a zone. It is descriptive only.
type ZoneStatus string

const (
	ZoneStatusActive     ZoneStatus = "active"
	ZoneStatusReserved   ZoneStatus = "reserved"
	ZoneStatusDeprecated ZoneStatus = "deprecated"
	ZoneStatusParked     ZoneStatus = "parked"
	ZoneStatusDynamic    ZoneStatus = "dynamic"
)

// ZoneStatusInfo is the display metadata attached to a status value.
type ZoneStatusInfo struct {
	Value ZoneStatus `json:"value"`
	Label string     `json:"label"`
	Color string     `json:"color"`
}

// ZoneStatuses lists every recognised status in display order.
var ZoneStatuses = []ZoneStatusInfo{
	{ZoneStatusActive, "Active", "blue"},
	{ZoneStatusReserved, "Reserved", "cyan"},
	{ZoneStatusDeprecated, "Deprecated", "red"},
	{ZoneStatusParked, "Parked", "gray"},
	{ZoneStatusDynamic, "Dynamic", "orange"},
}

// Info returns the display metadata for s and whether s is a recognised status.
func (s ZoneStatus) Info() (ZoneStatusInfo, bool) {
	for _, info := range ZoneStatuses {
		if info.Value == s {
			return info, true
		}
	}
	return ZoneStatusInfo{}, false
}

// Entity is implemented by persisted objects addressed by a primary key.
type Entity interface {
	PrimaryKey() string
}

// Zone represents a DNS zone.
type Zone struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"` // e.g., example.com.
	Status              ZoneStatus     `json:"status"`
	DefaultTTL          int            `json:"default_ttl"`
	RFC2317Prefix       *NetworkPrefix `json:"rfc2317_prefix,omitempty"`
	RFC2317ParentZoneID *string        `json:"rfc2317_parent_zone_id,omitempty"`
	Description         string         `json:"description"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// PrimaryKey implements Entity.
func (z *Zone) PrimaryKey() string { return z.ID }

// Record represents a DNS resource record within a zone.
type Record struct {
	ID              string     `json:"id"`
	ZoneID          string     `json:"zone_id"`
	Name            string     `json:"name"` // relative to the zone, "@" for the apex
	Type            RecordType `json:"type"`
	Value           string     `json:"value"`
	TTL             *int       `json:"ttl,omitempty"` // nil inherits the zone default
	FQDN            string     `json:"fqdn"`
	IPAMIPAddressID *string    `json:"ipam_ip_address_id,omitempty"`
	Description     string     `json:"description"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PrimaryKey implements Entity.
func (r *Record) PrimaryKey() string { return r.ID }

// AuditLog records administrative actions performed on zones and records.
type AuditLog struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`        // e.g., "CREATE_RECORD", "UPDATE_ZONE"
	ResourceType string    `json:"resource_type"` // e.g., "ZONE", "RECORD"
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}
