package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
)

const cfStatusAPIBase = "https://www.cloudflarestatus.com/api/v2"

type cfPageInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

type cfStatusResponse struct {
	Page   cfPageInfo `json:"page"`
	Status struct {
		Description string `json:"description"`
		Indicator   string `json:"indicator"`
	} `json:"status"`
}

type cfComponent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Group       bool   `json:"group"`
	Position    int    `json:"position"`
	UpdatedAt   string `json:"updated_at"`
}

type cfComponentsResponse struct {
	Page       cfPageInfo    `json:"page"`
	Components []cfComponent `json:"components"`
}

type cfIncidentUpdate struct {
	Status    string `json:"status"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type cfIncident struct {
	Name      string             `json:"name"`
	Status    string             `json:"status"`
	Impact    string             `json:"impact"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
	Shortlink string             `json:"shortlink"`
	Updates   []cfIncidentUpdate `json:"incident_updates"`
}

type cfIncidentsResponse struct {
	Page      cfPageInfo   `json:"page"`
	Incidents []cfIncident `json:"incidents"`
}

// handleCFStatus serves the Cloudflare status page. The payload selects
// the view: empty or "status" for the summary, "components" for the
// component list, "incidents" for unresolved incidents. Anything else
// falls back to the summary.
func (d *Dispatcher) handleCFStatus(ctx context.Context, q query.Query) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(q.Payload)) {
	case "COMPONENTS":
		return d.cfComponents(ctx)
	case "INCIDENTS":
		return d.cfIncidents(ctx)
	default:
		return d.cfOverallStatus(ctx)
	}
}

func (d *Dispatcher) cfOverallStatus(ctx context.Context) (string, error) {
	var resp cfStatusResponse
	if err := d.deps.HTTP.GetJSON(ctx, cfStatusAPIBase+"/status.json", &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "Cloudflare Status - %s", resp.Page.Name)
	comment(&b, "Last Updated: %s", resp.Page.UpdatedAt)
	comment(&b, "URL: %s", resp.Page.URL)
	b.WriteString("%\n")
	comment(&b, "Status: %s %s", cfIndicatorSymbol(resp.Status.Indicator), resp.Status.Description)
	comment(&b, "Indicator: %s", resp.Status.Indicator)
	b.WriteString("%\n")
	comment(&b, "Query 'components-cfstatus' for component details")
	comment(&b, "Query 'incidents-cfstatus' for unresolved incidents")
	return b.String(), nil
}

func (d *Dispatcher) cfComponents(ctx context.Context) (string, error) {
	var resp cfComponentsResponse
	if err := d.deps.HTTP.GetJSON(ctx, cfStatusAPIBase+"/components.json", &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "Cloudflare Components - %s", resp.Page.Name)
	comment(&b, "Last Updated: %s", resp.Page.UpdatedAt)
	b.WriteString("%\n")

	if len(resp.Components) == 0 {
		comment(&b, "No components found")
		return b.String(), nil
	}

	components := append([]cfComponent(nil), resp.Components...)
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].Position < components[j].Position
	})

	comment(&b, "Total Components: %d", len(components))
	b.WriteString("%\n")

	for _, c := range components {
		comment(&b, "%s %s (%s)", cfComponentSymbol(c.Status), c.Name, c.Status)
		if c.Description != "" {
			comment(&b, "  Description: %s", c.Description)
		}
		if c.Group {
			comment(&b, "  Type: Component Group")
		}
		comment(&b, "  ID: %s", c.ID)
		comment(&b, "  Updated: %s", c.UpdatedAt)
		b.WriteString("%\n")
	}
	return b.String(), nil
}

func (d *Dispatcher) cfIncidents(ctx context.Context) (string, error) {
	var resp cfIncidentsResponse
	if err := d.deps.HTTP.GetJSON(ctx, cfStatusAPIBase+"/incidents/unresolved.json", &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "Cloudflare Incidents - %s", resp.Page.Name)
	comment(&b, "Last Updated: %s", resp.Page.UpdatedAt)
	b.WriteString("%\n")

	if len(resp.Incidents) == 0 {
		comment(&b, "No unresolved incidents")
		comment(&b, "All systems operational")
		return b.String(), nil
	}

	comment(&b, "Unresolved Incidents: %d", len(resp.Incidents))
	b.WriteString("%\n")

	for _, inc := range resp.Incidents {
		comment(&b, "%s %s [%s]", cfImpactSymbol(inc.Impact), inc.Name, strings.ToUpper(inc.Impact))
		comment(&b, "  Status: %s", inc.Status)
		comment(&b, "  Created: %s", inc.CreatedAt)
		comment(&b, "  Updated: %s", inc.UpdatedAt)
		comment(&b, "  Short Link: %s", inc.Shortlink)

		if len(inc.Updates) > 0 {
			b.WriteString("%\n")
			comment(&b, "  Latest Updates:")
			updates := inc.Updates
			if len(updates) > 3 {
				updates = updates[:3]
			}
			for _, u := range updates {
				comment(&b, "    [%s at %s]", u.Status, u.CreatedAt)
				for _, line := range wrapText(u.Body, 70) {
					comment(&b, "    %s", line)
				}
				b.WriteString("%\n")
			}
		}
		b.WriteString("%\n")
	}
	return b.String(), nil
}

func cfIndicatorSymbol(indicator string) string {
	switch indicator {
	case "none":
		return "✓"
	case "minor", "major":
		return "⚠"
	case "critical":
		return "✗"
	default:
		return "?"
	}
}

func cfComponentSymbol(status string) string {
	switch status {
	case "operational":
		return "✓"
	case "degraded_performance", "partial_outage":
		return "⚠"
	case "major_outage":
		return "✗"
	default:
		return "?"
	}
}

func cfImpactSymbol(impact string) string {
	switch impact {
	case "none":
		return "○"
	case "minor", "major", "critical":
		return "●"
	default:
		return "?"
	}
}

// wrapText greedily wraps whitespace-separated words to the given width.
func wrapText(text string, width int) []string {
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
