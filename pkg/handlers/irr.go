package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/upstream/whoisnet"
)

// handleIRRDirect proxies the query verbatim to the IRR database the tag
// names.
func (d *Dispatcher) handleIRRDirect(ctx context.Context, q query.Query) (string, error) {
	server, ok := whoisnet.IRRServer(q.Tag)
	if !ok {
		return "", fmt.Errorf("no IRR server for tag %s: %w", q.Tag, errkind.ErrInternal)
	}
	return d.deps.Whois.Query(ctx, server, q.Payload)
}

// handleBGPTool queries bgp.tools, which expects a leading " -v " for
// verbose table output.
func (d *Dispatcher) handleBGPTool(ctx context.Context, q query.Query) (string, error) {
	return d.deps.Whois.Query(ctx, whoisnet.BGPToolsServer, " -v "+q.Payload)
}

// irrExplorerURL is NLNOG's IRR Explorer API.
const irrExplorerURL = "https://irrexplorer.nlnog.net/api/prefixes/prefix/"

type irrExplorerEntry struct {
	Prefix          string                        `json:"prefix"`
	RIR             string                        `json:"rir"`
	CategoryOverall string                        `json:"categoryOverall"`
	GoodnessOverall *int                          `json:"goodnessOverall"`
	BGPOrigins      []uint32                      `json:"bgpOrigins"`
	Messages        []irrExplorerMsg              `json:"messages"`
	RPKIRoutes      []irrExplorerRoute            `json:"rpkiRoutes"`
	IRRRoutes       map[string][]irrExplorerRoute `json:"irrRoutes"`
}

type irrExplorerMsg struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

type irrExplorerRoute struct {
	RPKIStatus    string `json:"rpkiStatus"`
	RPSLPK        string `json:"rpslPk"`
	RPSLText      string `json:"rpslText"`
	RPKIMaxLength *int   `json:"rpkiMaxLength"`
}

// irrDatabaseOrder fixes the rendering order of IRR databases.
var irrDatabaseOrder = []string{
	"RIPE", "RADB", "ARIN", "APNIC", "AFRINIC", "LACNIC",
	"LEVEL3", "ALTDB", "BELL", "JPIRR", "NTTCOM", "RPKI",
}

// handleIRRExplorer renders NLNOG IRR Explorer's cross-database view of a
// prefix.
func (d *Dispatcher) handleIRRExplorer(ctx context.Context, q query.Query) (string, error) {
	var entries []irrExplorerEntry
	if err := d.deps.HTTP.GetJSON(ctx, irrExplorerURL+url.PathEscape(q.Payload), &entries); err != nil {
		return "", err
	}

	var b strings.Builder
	queryHeader(&b, "IRR Explorer Query", "https://irrexplorer.nlnog.net/", q.Payload)

	if len(entries) == 0 {
		comment(&b, "No IRR data available")
		return b.String(), nil
	}

	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n% --- Next Entry ---\n\n")
		}
		comment(&b, "Prefix: %s", entry.Prefix)
		if entry.RIR != "" {
			comment(&b, "RIR: %s", entry.RIR)
		}
		comment(&b, "Overall Category: %s", entry.CategoryOverall)
		if entry.GoodnessOverall != nil {
			comment(&b, "Goodness Score: %d", *entry.GoodnessOverall)
		}
		if len(entry.BGPOrigins) > 0 {
			origins := make([]string, len(entry.BGPOrigins))
			for j, o := range entry.BGPOrigins {
				origins[j] = fmt.Sprintf("AS%d", o)
			}
			comment(&b, "BGP Origins: %s", strings.Join(origins, ", "))
		}
		b.WriteByte('\n')

		if len(entry.Messages) > 0 {
			comment(&b, "Messages:")
			for _, msg := range entry.Messages {
				comment(&b, "[%7s] %s", strings.ToUpper(msg.Category), msg.Text)
			}
			b.WriteByte('\n')
		}

		if len(entry.RPKIRoutes) > 0 {
			comment(&b, "RPKI Routes:")
			for _, route := range entry.RPKIRoutes {
				writeIRRRoute(&b, route)
			}
		}

		for _, db := range irrDatabaseOrder {
			routes := entry.IRRRoutes[db]
			if len(routes) == 0 {
				continue
			}
			comment(&b, "IRR Database: %s", db)
			for _, route := range routes {
				writeIRRRoute(&b, route)
			}
		}
	}
	return b.String(), nil
}

func writeIRRRoute(b *strings.Builder, route irrExplorerRoute) {
	comment(b, "RPKI Status: %s", route.RPKIStatus)
	comment(b, "RPSL Primary Key: %s", route.RPSLPK)
	if route.RPKIMaxLength != nil {
		comment(b, "Max Length: %d", *route.RPKIMaxLength)
	}
	b.WriteByte('\n')
	b.WriteString(route.RPSLText)
	if !strings.HasSuffix(route.RPSLText, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}
