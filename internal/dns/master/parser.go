// Package master provides functionality for parsing DNS master zone files (RFC 1035).
package master

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
)

// Entry is one resource record read from a zone file. Owner is absolute.
type Entry struct {
	Owner string
	Type  domain.RecordType
	TTL   int
	Data  string
	Line  int
}

// MasterParser implements a parser for DNS master zone files.
type MasterParser struct {
	Origin     string
	DefaultTTL int
}

// NewMasterParser creates and returns a new MasterParser instance. origin may be
// empty when the file carries its own $ORIGIN.
func NewMasterParser(origin string) *MasterParser {
	if origin != "" && !strings.HasSuffix(origin, ".") {
		origin += "."
	}
	return &MasterParser{
		Origin:     strings.ToLower(origin),
		DefaultTTL: 3600,
	}
}

// ZoneData holds the parsed records and metadata from a zone file.
type ZoneData struct {
	Origin  string
	Entries []Entry
}

// Parse reads a master zone file from the provided reader and returns the parsed data.
func (p *MasterParser) Parse(r io.Reader) (*ZoneData, error) {
	scanner := bufio.NewScanner(r)
	// Use 1MB buffer for long records like DNSKEY/RRSIG
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)
	data := &ZoneData{Origin: p.Origin}

	var lastOwner string
	var inParen bool
	var parenLines []string
	var firstLineLeadingWS bool
	var lineNo, entryLine int

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}

		if !inParen {
			if strings.TrimSpace(line) == "" {
				continue
			}
			entryLine = lineNo
			firstLineLeadingWS = line[0] == ' ' || line[0] == '\t'

			if strings.Contains(line, "(") {
				inParen = true
				parenLines = append(parenLines, strings.Replace(line, "(", " ", 1))
				if !strings.Contains(line, ")") {
					continue
				}
			}
		} else {
			parenLines = append(parenLines, line)
			if !strings.Contains(line, ")") {
				continue
			}
			inParen = false
		}

		fullLine := line
		if len(parenLines) > 0 {
			fullLine = strings.ReplaceAll(strings.Join(parenLines, " "), ")", " ")
			parenLines = nil
			inParen = false
		}

		fields := strings.Fields(fullLine)
		if len(fields) == 0 {
			continue
		}

		if strings.HasPrefix(fields[0], "$") {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: %s requires an argument", entryLine, fields[0])
			}
			switch strings.ToUpper(fields[0]) {
			case "$ORIGIN":
				p.Origin = strings.ToLower(fields[1])
				if !strings.HasSuffix(p.Origin, ".") {
					p.Origin += "."
				}
				data.Origin = p.Origin
			case "$TTL":
				ttl, err := strconv.Atoi(fields[1])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid $TTL %q", entryLine, fields[1])
				}
				p.DefaultTTL = ttl
			}
			continue
		}

		var owner string
		if firstLineLeadingWS {
			owner = lastOwner
		} else {
			owner = fields[0]
			fields = fields[1:]
			switch {
			case owner == "@":
				owner = p.Origin
			case !strings.HasSuffix(owner, "."):
				if p.Origin == "" {
					return nil, fmt.Errorf("line %d: relative owner %q without $ORIGIN", entryLine, owner)
				}
				owner = owner + "." + p.Origin
			}
			lastOwner = owner
		}
		if owner == "" {
			return nil, fmt.Errorf("line %d: record without owner", entryLine)
		}

		ttl := p.DefaultTTL
		var qType domain.RecordType
		var dataParts []string

		for i := 0; i < len(fields); i++ {
			f := fields[i]
			upper := strings.ToUpper(f)
			if val, err := strconv.Atoi(f); err == nil {
				ttl = val
				continue
			}
			if upper == "IN" || upper == "CS" || upper == "CH" || upper == "HS" {
				continue
			}
			qType = domain.RecordType(upper)
			dataParts = fields[i+1:]
			break
		}

		if qType == "" {
			return nil, fmt.Errorf("line %d: missing record type", entryLine)
		}

		data.Entries = append(data.Entries, Entry{
			Owner: strings.ToLower(owner),
			Type:  qType,
			TTL:   ttl,
			Data:  strings.Join(dataParts, " "),
			Line:  entryLine,
		})
	}

	if inParen {
		return nil, fmt.Errorf("line %d: unterminated parenthesis", entryLine)
	}
	return data, scanner.Err()
}
