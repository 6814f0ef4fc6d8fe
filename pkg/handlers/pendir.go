package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/pen"
	"github.com/akaere/whoisd/pkg/query"
)

const penSearchLimit = 20

// handlePEN serves IANA Private Enterprise Number lookups from the
// locally cached registry. A numeric payload is an exact lookup, any
// other payload is a fuzzy search over organization, contact and e-mail.
func (d *Dispatcher) handlePEN(ctx context.Context, q query.Query) (string, error) {
	payload := strings.TrimSpace(q.Payload)

	if number, err := strconv.ParseUint(payload, 10, 32); err == nil {
		entry, found, err := pen.Lookup(d.deps.PenStore, uint32(number))
		if err != nil {
			return "", err
		}
		if !found {
			return fmt.Sprintf("%% IANA Private Enterprise Number %d not found.\n%% The number may not be assigned yet, or the database needs updating.\n", number), nil
		}
		return penWhoisFormat(&entry), nil
	}

	matches, overflow, err := pen.Search(d.deps.PenStore, payload, penSearchLimit)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return fmt.Sprintf("%% No IANA Private Enterprise Numbers found matching: %s\n%% Please try a different search term or use exact PEN number query.\n", payload), nil
	}

	blocks := make([]string, 0, len(matches)+1)
	for i := range matches {
		blocks = append(blocks, penWhoisFormat(&matches[i]))
	}
	if overflow {
		blocks = append(blocks, fmt.Sprintf("%% Search limited to %d results. Please refine your query for more specific results.\n", penSearchLimit))
	}
	return strings.Join(blocks, "\n"), nil
}

func penWhoisFormat(entry *pen.Entry) string {
	var b strings.Builder
	comment(&b, "IANA Private Enterprise Number (PEN) Information")
	comment(&b, "https://www.iana.org/assignments/enterprise-numbers")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Enterprise-Number: %d\n", entry.Number)
	fmt.Fprintf(&b, "OID: %s\n", entry.OID)
	b.WriteString("OID-Prefix: iso.org.dod.internet.private.enterprise (1.3.6.1.4.1)\n")
	fmt.Fprintf(&b, "Organization: %s\n", entry.Organization)
	fmt.Fprintf(&b, "Contact: %s\n", entry.Contact)
	fmt.Fprintf(&b, "Email: %s\n", entry.Email)
	b.WriteString("\n")
	comment(&b, "This information is provided for informational purposes only.")
	comment(&b, "Data source: IANA Enterprise Numbers Registry")
	comment(&b, "Last updated: %s", utcStamp(time.Unix(entry.CachedAt, 0)))
	return b.String()
}
