package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

// handleMANRS reports MANRS membership status for an ASN from the local
// mirror of the MANRS member list.
func (d *Dispatcher) handleMANRS(ctx context.Context, q query.Query) (string, error) {
	raw := strings.TrimPrefix(strings.ToUpper(q.Payload), "AS")
	asn, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return "", fmt.Errorf("manrs query needs an ASN: %w", errkind.ErrInvalidQuery)
	}

	membership, ok, err := d.deps.Manrs.Check(ctx, uint32(asn))
	if err != nil || !ok {
		var b strings.Builder
		comment(&b, "MANRS Information: Unable to determine membership status")
		b.WriteString("%\n")
		comment(&b, "This could be due to network connectivity issues or API unavailability.")
		comment(&b, "Please try again later or check https://www.manrs.org/ directly.")
		b.WriteString("%\n")
		return b.String(), nil
	}

	status := "NON-MEMBER"
	if membership.Member {
		status = "MEMBER"
	}

	var b strings.Builder
	comment(&b, "MANRS (Mutually Agreed Norms for Routing Security) Information")
	b.WriteString("%\n")
	field(&b, "aut-num", fmt.Sprintf("AS%d", asn))
	field(&b, "status", status)
	field(&b, "asn", fmt.Sprintf("AS%d", asn))
	field(&b, "total-members", strconv.Itoa(membership.TotalMembers))
	field(&b, "updated-time", manrsTimestamp(membership.LastUpdated))
	b.WriteString("%\n")
	comment(&b, "MANRS is a global initiative that provides crucial fixes to reduce")
	comment(&b, "the most common routing threats. The four actions of MANRS are:")
	comment(&b, "  1. Filtering - Implement routing filters to prevent incorrect routing information")
	comment(&b, "  2. Anti-spoofing - Enable anti-spoofing protection to prevent address spoofing")
	comment(&b, "  3. Coordination - Facilitate coordination between network operators")
	comment(&b, "  4. Global Validation - Facilitate global routing information validation")
	b.WriteString("%\n")
	comment(&b, "For more information about MANRS, visit: https://www.manrs.org/")
	b.WriteString("%\n")
	comment(&b, "Cache refresh interval: 14 days")
	comment(&b, "This query was served from: LOCAL CACHE")
	b.WriteString("%\n")
	comment(&b, "Terms and Conditions of Use")
	b.WriteString("%\n")
	comment(&b, "The data in this response is provided for informational purposes.")
	comment(&b, "MANRS membership status is updated periodically from the official")
	comment(&b, "MANRS API at https://api.manrs.org/")
	b.WriteString("%\n")
	return b.String(), nil
}

func manrsTimestamp(unix int64) string {
	if unix <= 0 {
		return "Unknown"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}
