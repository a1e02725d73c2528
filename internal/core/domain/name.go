package domain

import (
	"iter"
	"regexp"
	"strings"

	"github.com/miekg/dns"
)

// Labels may carry underscores (service names like _sip._tcp) and a lone "*" is a
// wildcard. Zone names are held to the stricter validLabelRegex in validation.go.
var nameLabelRegex = regexp.MustCompile(`^(\*|[a-z0-9_]([a-z0-9_-]{0,61}[a-z0-9_])?)$`)

// DomainName is an immutable, lower-cased sequence of labels. An absolute name
// carries the root marker; the zero value is the relative empty name, which
// denotes a zone apex ("@").
type DomainName struct {
	labels   []string
	absolute bool
}

var (
	// Root is the absolute name with no labels.
	Root = DomainName{absolute: true}
	// Apex is the relative name with no labels.
	Apex = DomainName{}
)

// Normalize parses text into a DomainName. A trailing dot makes the name absolute.
func Normalize(text string) (DomainName, error) {
	switch text {
	case "":
		return DomainName{}, &FormatError{Input: text, Reason: "empty name"}
	case ".":
		return Root, nil
	case "@":
		return Apex, nil
	}

	absolute := strings.HasSuffix(text, ".")
	trimmed := strings.ToLower(strings.TrimSuffix(text, "."))

	labels := strings.Split(trimmed, ".")
	for _, label := range labels {
		if label == "" {
			return DomainName{}, &FormatError{Input: text, Reason: "empty label"}
		}
		if !nameLabelRegex.MatchString(label) {
			return DomainName{}, &FormatError{Input: text, Reason: "label '" + label + "' contains invalid characters or format"}
		}
	}
	if _, ok := dns.IsDomainName(trimmed + "."); !ok {
		return DomainName{}, &FormatError{Input: text, Reason: "name exceeds 255 octets"}
	}

	return DomainName{labels: labels, absolute: absolute}, nil
}

// MustNormalize is like Normalize but panics on malformed input.
func MustNormalize(text string) DomainName {
	n, err := Normalize(text)
	if err != nil {
		panic(err)
	}
	return n
}

// Labels returns a copy of the labels, most specific first.
func (n DomainName) Labels() []string {
	out := make([]string, len(n.labels))
	copy(out, n.labels)
	return out
}

// Len is the number of labels.
func (n DomainName) Len() int { return len(n.labels) }

func (n DomainName) IsAbsolute() bool { return n.absolute }

func (n DomainName) IsRoot() bool { return n.absolute && len(n.labels) == 0 }

func (n DomainName) IsApex() bool { return !n.absolute && len(n.labels) == 0 }

// Absolute returns n with the root marker set.
func (n DomainName) Absolute() DomainName {
	return DomainName{labels: n.labels, absolute: true}
}

// String renders n in presentation format.
func (n DomainName) String() string {
	switch {
	case n.IsRoot():
		return "."
	case n.IsApex():
		return "@"
	case n.absolute:
		return strings.Join(n.labels, ".") + "."
	default:
		return strings.Join(n.labels, ".")
	}
}

// MarshalText implements encoding.TextMarshaler.
func (n DomainName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *DomainName) UnmarshalText(b []byte) error {
	parsed, err := Normalize(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Equal reports whether both names have the same labels and absoluteness.
func (n DomainName) Equal(o DomainName) bool {
	if n.absolute != o.absolute || len(n.labels) != len(o.labels) {
		return false
	}
	for i := range n.labels {
		if n.labels[i] != o.labels[i] {
			return false
		}
	}
	return true
}

// Parent drops the leftmost label. The parent of a name without labels is itself.
func (n DomainName) Parent() DomainName {
	if len(n.labels) == 0 {
		return n
	}
	return DomainName{labels: n.labels[1:], absolute: n.absolute}
}

// Ancestors yields the proper ancestors of n, one label shorter each step, and
// stops once fewer than minLabels labels would remain. With minLabels <= 0 the
// last element of an absolute name is Root.
func (n DomainName) Ancestors(minLabels int) iter.Seq[DomainName] {
	if minLabels < 0 {
		minLabels = 0
	}
	return func(yield func(DomainName) bool) {
		for i := 1; len(n.labels)-i >= minLabels; i++ {
			if len(n.labels)-i == 0 && !n.absolute {
				return
			}
			if !yield(DomainName{labels: n.labels[i:], absolute: n.absolute}) {
				return
			}
		}
	}
}

// IsSuffixOf reports whether a's labels, read right to left, are a prefix of b's.
func IsSuffixOf(a, b DomainName) bool {
	if len(a.labels) > len(b.labels) {
		return false
	}
	offset := len(b.labels) - len(a.labels)
	for i := range a.labels {
		if a.labels[i] != b.labels[offset+i] {
			return false
		}
	}
	return true
}

// CompareCanonical orders names per RFC 4034 Section 6.1: label by label from the right.
func CompareCanonical(a, b DomainName) int {
	i := len(a.labels) - 1
	j := len(b.labels) - 1
	for i >= 0 && j >= 0 {
		if c := strings.Compare(a.labels[i], b.labels[j]); c != 0 {
			return c
		}
		i--
		j--
	}
	switch {
	case len(a.labels) < len(b.labels):
		return -1
	case len(a.labels) > len(b.labels):
		return 1
	}
	return 0
}
