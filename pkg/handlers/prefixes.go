package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/enrich"
	"github.com/akaere/whoisd/pkg/query"
)

const ripePrefixesURL = "https://stat.ripe.net/data/announced-prefixes/data.json?resource="

// ipinfoFanout caps concurrent per-prefix lookups against IPinfo.
const ipinfoFanout = 32

// prefixLookupTimeout bounds each per-prefix IPinfo annotation.
const prefixLookupTimeout = 10 * time.Second

type announcedPrefixes struct {
	Data *struct {
		Prefixes []struct {
			Prefix string `json:"prefix"`
		} `json:"prefixes"`
	} `json:"data"`
	Messages [][]string `json:"messages"`
}

type prefixRow struct {
	prefix  string
	country string
	asName  string
}

// handlePrefixes lists an ASN's announced prefixes, annotated with country
// and AS name fetched per prefix from IPinfo.
func (d *Dispatcher) handlePrefixes(ctx context.Context, q query.Query) (string, error) {
	var resp announcedPrefixes
	if err := d.deps.HTTP.GetJSON(ctx, ripePrefixesURL+url.QueryEscape(q.Payload), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	queryHeader(&b, "ASN Announced Prefixes Query", "RIPE NCC STAT", q.Payload)

	if resp.Data == nil {
		comment(&b, "No prefixes data available")
		return b.String(), nil
	}
	if len(resp.Data.Prefixes) == 0 {
		comment(&b, "No announced prefixes found")
		return b.String(), nil
	}

	tasks := make([]enrich.Task, len(resp.Data.Prefixes))
	for i, p := range resp.Data.Prefixes {
		prefix := p.Prefix
		tasks[i] = enrich.Task{
			ID:      prefix,
			Timeout: prefixLookupTimeout,
			Run: func(ctx context.Context) ([]byte, error) {
				var info ipinfoResponse
				addr := prefixAddr(prefix)
				if err := d.deps.HTTP.GetJSON(ctx, ipinfoLiteURL+url.PathEscape(addr)+"?token="+ipinfoToken, &info); err != nil {
					return nil, err
				}
				return []byte(info.Country + "\t" + info.ASName), nil
			},
		}
	}
	rows, failed := prefixRowsFrom(enrich.RunAll(ctx, tasks, ipinfoFanout, 0))

	prefixW, countryW, asNameW := 6, 7, 7
	for _, r := range rows {
		if len(r.prefix) > prefixW {
			prefixW = len(r.prefix)
		}
		if len(r.country) > countryW {
			countryW = len(r.country)
		}
		if len(r.asName) > asNameW {
			asNameW = len(r.asName)
		}
	}

	b.WriteString("Currently Announced Prefixes\n")
	b.WriteString("============================\n\n")
	fmt.Fprintf(&b, "%-*s | %-*s | %-*s\n", prefixW, "Prefix", countryW, "Country", asNameW, "AS Name")
	fmt.Fprintf(&b, "%s-|-%s-|-%s\n",
		strings.Repeat("-", prefixW), strings.Repeat("-", countryW), strings.Repeat("-", asNameW))
	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s | %-*s | %-*s\n",
			prefixW, truncate(r.prefix, prefixW),
			countryW, truncate(r.country, countryW),
			asNameW, truncate(r.asName, asNameW))
	}
	b.WriteByte('\n')
	comment(&b, "Total announced prefixes: %d", len(resp.Data.Prefixes))
	if failed > 0 {
		comment(&b, "Annotation unavailable for %d prefixes", failed)
	}

	if len(resp.Messages) > 0 {
		b.WriteByte('\n')
		comment(&b, "API Messages:")
		for _, msg := range resp.Messages {
			for _, part := range msg {
				comment(&b, "%s", part)
			}
		}
	}
	return b.String(), nil
}

// prefixRowsFrom turns annotation results into table rows, preserving the
// announcement order. A failed lookup keeps its N/A placeholders and is
// counted in the second return.
func prefixRowsFrom(results []enrich.Result) ([]prefixRow, int) {
	rows := make([]prefixRow, len(results))
	failed := 0
	for i, result := range results {
		rows[i] = prefixRow{prefix: result.ID, country: "N/A", asName: "N/A"}
		if result.Err != nil {
			failed++
			continue
		}
		country, asName, _ := strings.Cut(string(result.Output), "\t")
		if country != "" {
			rows[i].country = country
		}
		if asName != "" {
			rows[i].asName = asName
		}
	}
	return rows, failed
}

// prefixAddr extracts the network address from a CIDR prefix.
func prefixAddr(prefix string) string {
	if i := strings.IndexByte(prefix, '/'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}
