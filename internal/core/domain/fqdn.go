package domain

// ResolveFQDN places the labels of a record name in front of its zone's labels.
// The result is always absolute. An already absolute name is returned as is when
// it lies inside zone, which makes ResolveFQDN(ResolveFQDN(r, z), Root) stable.
func ResolveFQDN(relative, zone DomainName) (DomainName, error) {
	if zone.IsApex() {
		return DomainName{}, &FormatError{Input: zone.String(), Reason: "zone name is empty"}
	}
	if relative.IsAbsolute() {
		if !IsSuffixOf(zone, relative) {
			return DomainName{}, &FormatError{Input: relative.String(), Reason: "name is outside zone " + zone.String()}
		}
		return relative, nil
	}

	labels := make([]string, 0, len(relative.labels)+len(zone.labels))
	labels = append(labels, relative.labels...)
	labels = append(labels, zone.labels...)
	fqdn := DomainName{labels: labels, absolute: true}

	// Concatenation can push a valid pair over the 255 octet limit.
	if _, err := Normalize(fqdn.String()); err != nil {
		return DomainName{}, err
	}
	return fqdn, nil
}

// ResolveRecordFQDN is ResolveFQDN over presentation-format text.
func ResolveRecordFQDN(recordName, zoneName string) (string, error) {
	rel, err := Normalize(recordName)
	if err != nil {
		return "", err
	}
	zone, err := Normalize(zoneName)
	if err != nil {
		return "", err
	}
	fqdn, err := ResolveFQDN(rel, zone)
	if err != nil {
		return "", err
	}
	return fqdn.String(), nil
}

// RelativeTo strips zone's labels from the end of fqdn. It returns Apex when the
// names are equal and a FormatError when fqdn is not inside zone.
func RelativeTo(fqdn, zone DomainName) (DomainName, error) {
	if !IsSuffixOf(zone, fqdn) {
		return DomainName{}, &FormatError{Input: fqdn.String(), Reason: "name is outside zone " + zone.String()}
	}
	rest := fqdn.labels[:len(fqdn.labels)-len(zone.labels)]
	labels := make([]string, len(rest))
	copy(labels, rest)
	return DomainName{labels: labels}, nil
}
