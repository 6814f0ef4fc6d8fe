package handlers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/query"
)

const crtShURL = "https://crt.sh/json?q="

type crtEntry struct {
	IssuerCAID     uint64 `json:"issuer_ca_id"`
	IssuerName     string `json:"issuer_name"`
	CommonName     string `json:"common_name"`
	NameValue      string `json:"name_value"`
	ID             uint64 `json:"id"`
	EntryTimestamp string `json:"entry_timestamp"`
	NotBefore      string `json:"not_before"`
	NotAfter       string `json:"not_after"`
	SerialNumber   string `json:"serial_number"`
}

type crtCertificate struct {
	id        uint64
	name      string
	altNames  []string
	issuer    string
	serial    string
	notBefore time.Time
	notAfter  time.Time
	logged    string
}

// crtDateLayouts covers the timestamp shapes crt.sh has been seen using.
var crtDateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// handleCRT lists a domain's currently valid certificates from the
// Certificate Transparency logs.
func (d *Dispatcher) handleCRT(ctx context.Context, q query.Query) (string, error) {
	var entries []crtEntry
	if err := d.deps.HTTP.GetJSON(ctx, crtShURL+url.QueryEscape(q.Payload), &entries); err != nil {
		return "", err
	}

	certs := filterValidCerts(entries, time.Now().UTC())
	if len(certs) == 0 {
		return fmt.Sprintf("Certificate Transparency Query Results for: %s\n\n"+
			"No valid (non-expired) certificates found in Certificate Transparency logs.\n"+
			"This could mean:\n"+
			"- Domain has no certificates\n"+
			"- All certificates are expired\n"+
			"- Domain is not publicly accessible\n"+
			"- crt.sh may not have indexed this domain yet\n", q.Payload), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Certificate Transparency Query Results for: %s\n", q.Payload)
	fmt.Fprintf(&b, "Found %d valid (non-expired) certificates from CT logs\n", len(certs))
	b.WriteString(strings.Repeat("=", 80))
	b.WriteByte('\n')

	for i, cert := range certs {
		fmt.Fprintf(&b, "\n[%d] Certificate #%d\n", i+1, cert.id)
		fmt.Fprintf(&b, "Common Name: %s\n", cert.name)
		if len(cert.altNames) > 1 || (len(cert.altNames) == 1 && cert.altNames[0] != cert.name) {
			b.WriteString("Subject Alternative Names:\n")
			for _, san := range cert.altNames {
				fmt.Fprintf(&b, "  - %s\n", san)
			}
		}
		fmt.Fprintf(&b, "Issuer: %s\n", cert.issuer)
		fmt.Fprintf(&b, "Serial Number: %s\n", cert.serial)
		fmt.Fprintf(&b, "Valid From: %s\n", utcStampUnix(cert.notBefore))
		fmt.Fprintf(&b, "Valid Until: %s\n", utcStampUnix(cert.notAfter))
		fmt.Fprintf(&b, "CT Log Entry: %s\n", cert.logged)
		if i < len(certs)-1 {
			b.WriteString(strings.Repeat("-", 40))
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	b.WriteString("Note: Data sourced from Certificate Transparency logs via crt.sh\n")
	b.WriteString("Only currently valid (non-expired) certificates are shown\n")
	return b.String(), nil
}

// filterValidCerts keeps only certificates whose validity window contains
// now, deduplicates by serial plus issuer, and sorts most recent
// expiration first.
func filterValidCerts(entries []crtEntry, now time.Time) []crtCertificate {
	var certs []crtCertificate
	for _, entry := range entries {
		notBefore, err := parseCrtDate(entry.NotBefore)
		if err != nil {
			continue
		}
		notAfter, err := parseCrtDate(entry.NotAfter)
		if err != nil {
			continue
		}
		if now.Before(notBefore) || now.After(notAfter) {
			continue
		}

		altNames := uniqueSorted(strings.Split(entry.NameValue, "\n"))
		name := entry.CommonName
		if name == "" {
			name = "Unknown"
			if len(altNames) > 0 {
				name = altNames[0]
			}
		}

		certs = append(certs, crtCertificate{
			id:        entry.ID,
			name:      name,
			altNames:  altNames,
			issuer:    entry.IssuerName,
			serial:    entry.SerialNumber,
			notBefore: notBefore,
			notAfter:  notAfter,
			logged:    entry.EntryTimestamp,
		})
	}

	sort.SliceStable(certs, func(i, j int) bool {
		return certs[i].notAfter.After(certs[j].notAfter)
	})

	seen := make(map[string]bool)
	unique := certs[:0]
	for _, cert := range certs {
		key := cert.serial + ":" + cert.issuer
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, cert)
	}
	return unique
}

func parseCrtDate(s string) (time.Time, error) {
	for _, layout := range crtDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

func uniqueSorted(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	j := 0
	for i, v := range out {
		if i == 0 || v != out[j-1] {
			out[j] = v
			j++
		}
	}
	return out[:j]
}
