package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
)

// handleEmail finds contact addresses for a registry object: it reads the
// base object, follows its mnt-by/admin-c/tech-c references, and collects
// every e-mail attribute found along the way.
func (d *Dispatcher) handleEmail(ctx context.Context, q query.Query) (string, error) {
	emails := map[string]bool{}

	base, _ := d.registryRaw(q)
	for _, email := range extractEmails(base) {
		emails[email] = true
	}

	references := extractReferences(base)
	if len(references) == 0 && len(emails) == 0 {
		// bare names often resolve through their maintainer or person object
		upper := strings.ToUpper(q.Payload)
		if !strings.HasSuffix(upper, "-MNT") {
			references = append(references, q.Payload+"-MNT")
		}
		if !strings.HasSuffix(upper, "-DN42") {
			references = append(references, q.Payload+"-DN42")
		}
	}

	seen := map[string]bool{}
	for _, ref := range references {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		content, ok := d.registryObjectLookup(ref)
		if !ok {
			continue
		}
		for _, email := range extractEmails(content) {
			emails[email] = true
		}
		// one level deeper: maintainer objects reference admin contacts
		for _, nested := range extractReferences(content) {
			if seen[nested] {
				continue
			}
			seen[nested] = true
			if nestedContent, nestedOK := d.registryObjectLookup(nested); nestedOK {
				for _, email := range extractEmails(nestedContent) {
					emails[email] = true
				}
			}
		}
	}

	var b strings.Builder
	comment(&b, "Email Search")
	if len(emails) == 0 {
		comment(&b, "No email addresses found")
		return b.String(), nil
	}

	sorted := make([]string, 0, len(emails))
	for email := range emails {
		sorted = append(sorted, email)
	}
	sort.Strings(sorted)
	for _, email := range sorted {
		field(&b, "e-mail", email)
	}
	return b.String(), nil
}

// registryRaw returns the bare object content for a query, without the
// comment framing registryLookup adds.
func (d *Dispatcher) registryRaw(q query.Query) (string, bool) {
	switch q.Kind {
	case query.KindIPv4, query.KindIPv6, query.KindCIDR:
		prefix, err := parseNetwork(q.Payload)
		if err != nil {
			return "", false
		}
		category := "inetnum"
		if prefix.Addr().Is6() {
			category = "inet6num"
		}
		return d.findCoveringNetwork(category, prefix)
	default:
		return d.registryObjectLookup(q.Payload)
	}
}

// extractReferences pulls mnt-by, admin-c and tech-c values, deduplicated
// in first-seen order.
func extractReferences(content string) []string {
	var refs []string
	seen := map[string]bool{}
	for _, line := range strings.Split(content, "\n") {
		for _, attr := range []string{"mnt-by", "admin-c", "tech-c"} {
			value, ok := attrValue(line, attr)
			if !ok || seen[value] {
				continue
			}
			seen[value] = true
			refs = append(refs, value)
		}
	}
	return refs
}

// extractEmails pulls address-bearing attributes from an RPSL object.
func extractEmails(content string) []string {
	var emails []string
	for _, line := range strings.Split(content, "\n") {
		for _, attr := range []string{"abuse-mailbox", "e-mail", "email"} {
			if value, ok := attrValue(line, attr); ok {
				emails = append(emails, value)
			}
		}
		if value, ok := attrValue(line, "abuse-c"); ok && strings.Contains(value, "@") {
			emails = append(emails, value)
		}
	}
	return emails
}

func attrValue(line, attr string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, attr) {
		return "", false
	}
	rest := trimmed[len(attr):]
	idx := strings.Index(rest, ":")
	if idx < 0 || strings.TrimSpace(rest[:idx]) != "" {
		return "", false
	}
	value := strings.TrimSpace(rest[idx+1:])
	if value == "" {
		return "", false
	}
	return value, true
}
