package domain

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

var validLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// MaxTTL is the largest TTL accepted (RFC 2181 Section 8).
const MaxTTL = 2147483647

// ValidateZoneName checks if the provided zone name is a valid FQDN.
func ValidateZoneName(name string) error {
	if name == "" {
		return fmt.Errorf("zone name cannot be empty")
	}
	if name == "." {
		return nil // Root zone is valid
	}
	if !strings.HasSuffix(name, ".") {
		return fmt.Errorf("zone name must end with a dot (FQDN)")
	}
	if len(name) > 254 {
		return fmt.Errorf("zone name exceeds 253 characters")
	}

	// Remove trailing dot for label validation
	labels := strings.Split(strings.TrimSuffix(name, "."), ".")
	for _, label := range labels {
		if len(label) > 63 {
			return fmt.Errorf("label '%s' exceeds 63 characters", label)
		}
		if label == "" {
			return fmt.Errorf("zone name contains empty label")
		}
		if !validLabelRegex.MatchString(label) {
			return fmt.Errorf("label '%s' contains invalid characters or format", label)
		}
	}
	return nil
}

// ValidateSRVContent ensures SRV content follows "priority weight port target" format.
func ValidateSRVContent(content string) error {
	parts := strings.Fields(content)
	if len(parts) != 4 {
		return fmt.Errorf("SRV content must be in format: priority weight port target")
	}

	for i, name := range []string{"priority", "weight", "port"} {
		val, err := strconv.Atoi(parts[i])
		if err != nil || val < 0 || val > 65535 {
			return fmt.Errorf("invalid %s: %s (must be 0-65535)", name, parts[i])
		}
	}

	target := parts[3]
	if !strings.HasSuffix(target, ".") {
		return fmt.Errorf("target must be a FQDN (end with a dot)")
	}

	return nil
}

// ValidateTTL accepts nil (inherit) or 0..MaxTTL.
func ValidateTTL(ttl *int) error {
	if ttl == nil {
		return nil
	}
	if *ttl < 0 || *ttl > MaxTTL {
		return &ValidationError{Field: "ttl", Message: fmt.Sprintf("must be between 0 and %d", MaxTTL)}
	}
	return nil
}

// ValidateZoneStatus rejects values outside ZoneStatuses.
func ValidateZoneStatus(s ZoneStatus) error {
	if _, ok := s.Info(); !ok {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown zone status %q", s)}
	}
	return nil
}

// ValidateRecordValue checks the value of rec against its type.
func ValidateRecordValue(rec *Record) error {
	if rec.Value == "" {
		return &ValidationError{Field: "value", Message: "cannot be empty"}
	}

	switch rec.Type {
	case TypeA, TypeAAAA:
		addr, err := netip.ParseAddr(rec.Value)
		if err != nil {
			return &ValidationError{Field: "value", Message: fmt.Sprintf("%q is not an IP address", rec.Value)}
		}
		if rec.Type == TypeA && !addr.Is4() {
			return &ValidationError{Field: "value", Message: "A records require an IPv4 address"}
		}
		if rec.Type == TypeAAAA && !addr.Is6() {
			return &ValidationError{Field: "value", Message: "AAAA records require an IPv6 address"}
		}
	case TypeCNAME:
		if rec.Name == "@" {
			return &ValidationError{Field: "name", Message: "CNAME records are not allowed at the zone apex"}
		}
		if _, err := Normalize(rec.Value); err != nil {
			return &ValidationError{Field: "value", Message: err.Error()}
		}
	case TypeNS, TypePTR:
		if _, err := Normalize(rec.Value); err != nil {
			return &ValidationError{Field: "value", Message: err.Error()}
		}
	case TypeSRV:
		if err := ValidateSRVContent(rec.Value); err != nil {
			return &ValidationError{Field: "value", Message: err.Error()}
		}
	case TypeMX, TypeTXT, TypeSOA:
	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unsupported record type %q", rec.Type)}
	}
	return nil
}
