package domain

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// CandidateParentNames lists the names a parent zone of name could have, most
// specific first. With includeSelf the name itself leads the list. Candidates
// with fewer than minLabels labels are never returned.
func CandidateParentNames(name DomainName, minLabels int, includeSelf bool) []DomainName {
	var out []DomainName
	if includeSelf && name.Len() >= minLabels && !name.IsApex() {
		out = append(out, name)
	}
	for ancestor := range name.Ancestors(minLabels) {
		out = append(out, ancestor)
	}
	return out
}

// RFC2317ParentName is the classful reverse zone that delegates the classless
// prefix p, e.g. 2.0.192.in-addr.arpa. for 192.0.2.128/25.
func RFC2317ParentName(p NetworkPrefix) (DomainName, error) {
	if !p.Addr().Is4() {
		return DomainName{}, &ValidationError{Field: "rfc2317_prefix", Message: "RFC 2317 delegation requires an IPv4 prefix"}
	}
	reverse, err := dns.ReverseAddr(p.Addr().String())
	if err != nil {
		return DomainName{}, &FormatError{Input: p.String(), Reason: err.Error()}
	}
	// Drop the host octet: 128.2.0.192.in-addr.arpa. -> 2.0.192.in-addr.arpa.
	_, rest, _ := strings.Cut(reverse, ".")
	return Normalize(rest)
}

// RFC2317ZoneName is the conventional name of the classless zone for p,
// e.g. 128-25.2.0.192.in-addr.arpa.
func RFC2317ZoneName(p NetworkPrefix) (DomainName, error) {
	parent, err := RFC2317ParentName(p)
	if err != nil {
		return DomainName{}, err
	}
	host := p.Addr().As4()[3]
	return Normalize(fmt.Sprintf("%d-%d.%s", host, p.Bits(), parent))
}
