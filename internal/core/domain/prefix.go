package domain

import (
	"errors"
	"fmt"
	"net/netip"
)

// MinRFC2317PrefixLength is exclusive: classless delegation starts at /25.
const MinRFC2317PrefixLength = 24

// NetworkPrefix is an address together with a prefix length. Unlike a CIDR block
// the address keeps its host bits so that validators can reject them.
type NetworkPrefix struct {
	p netip.Prefix
}

// ParsePrefix parses "addr/bits" without masking the address.
func ParsePrefix(s string) (NetworkPrefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return NetworkPrefix{}, fmt.Errorf("invalid prefix %q: %w", s, err)
	}
	return NetworkPrefix{p: p}, nil
}

// MustParsePrefix is like ParsePrefix but panics on error.
func MustParsePrefix(s string) NetworkPrefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Family returns 4 or 6.
func (n NetworkPrefix) Family() int {
	if n.p.Addr().Is4() {
		return 4
	}
	return 6
}

func (n NetworkPrefix) Addr() netip.Addr { return n.p.Addr() }

func (n NetworkPrefix) Bits() int { return n.p.Bits() }

// Network is the address with all host bits cleared.
func (n NetworkPrefix) Network() netip.Addr { return n.p.Masked().Addr() }

func (n NetworkPrefix) IsValid() bool { return n.p.IsValid() }

func (n NetworkPrefix) String() string { return n.p.String() }

// MarshalText implements encoding.TextMarshaler.
func (n NetworkPrefix) MarshalText() ([]byte, error) {
	return []byte(n.p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NetworkPrefix) UnmarshalText(b []byte) error {
	parsed, err := ParsePrefix(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// PrefixCheck validates one property of a prefix and reports failures against field.
type PrefixCheck func(field string, p NetworkPrefix) error

// ValidatePrefixIsNetwork rejects prefixes with host bits set.
func ValidatePrefixIsNetwork(field string, p NetworkPrefix) error {
	if p.Addr() != p.Network() {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s is not a network address, did you mean %s/%d?", p, p.Network(), p.Bits()),
		}
	}
	return nil
}

// ValidatePrefixIPv4 rejects non-IPv4 prefixes.
func ValidatePrefixIPv4(field string, p NetworkPrefix) error {
	if !p.Addr().Is4() {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is not an IPv4 prefix", p)}
	}
	return nil
}

// ValidatePrefixMinLength requires a prefix longer than /24.
func ValidatePrefixMinLength(field string, p NetworkPrefix) error {
	if p.Bits() <= MinRFC2317PrefixLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("prefix length must be greater than %d, got /%d", MinRFC2317PrefixLength, p.Bits()),
		}
	}
	return nil
}

// RFC2317Checks are the checks a classless delegation prefix must pass.
var RFC2317Checks = []PrefixCheck{ValidatePrefixIsNetwork, ValidatePrefixIPv4, ValidatePrefixMinLength}

// ValidatePrefix runs every check and joins the failures.
func ValidatePrefix(field string, p NetworkPrefix, checks ...PrefixCheck) error {
	var errs []error
	for _, check := range checks {
		if err := check(field, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
