package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

const ripeLookingGlassURL = "https://stat.ripe.net/data/looking-glass/data.json?resource="

type lookingGlassResponse struct {
	DataCallStatus string `json:"data_call_status"`
	Data           struct {
		RRCs []lgRRC `json:"rrcs"`
	} `json:"data"`
}

type lgRRC struct {
	RRC      string   `json:"rrc"`
	Location string   `json:"location"`
	Peers    []lgPeer `json:"peers"`
}

type lgPeer struct {
	ASNOrigin         string `json:"asn_origin"`
	ASPath            string `json:"as_path"`
	Community         string `json:"community"`
	LargeCommunity    string `json:"largeCommunity"`
	ExtendedCommunity string `json:"extendedCommunity"`
	LastUpdated       string `json:"last_updated"`
	Prefix            string `json:"prefix"`
	Peer              string `json:"peer"`
	Origin            string `json:"origin"`
	NextHop           string `json:"next_hop"`
	LatestTime        string `json:"latest_time"`
}

// handleLookingGlass renders RIS looking glass data in BIRD daemon style.
func (d *Dispatcher) handleLookingGlass(ctx context.Context, q query.Query) (string, error) {
	var resp lookingGlassResponse
	if err := d.deps.HTTP.GetJSON(ctx, ripeLookingGlassURL+url.QueryEscape(q.Payload), &resp); err != nil {
		return "", err
	}
	if resp.DataCallStatus != "supported" {
		return "", fmt.Errorf("looking glass data call not supported: %w", errkind.ErrUpstreamUnavailable)
	}

	var b strings.Builder
	comment(&b, "RIPE STAT Looking Glass data for %s", q.Payload)
	comment(&b, "Data from RIPE NCC Route Information Service (RIS)")
	comment(&b, "Output in BIRD routing daemon style")
	b.WriteByte('\n')

	if len(resp.Data.RRCs) == 0 {
		comment(&b, "No routing data found")
		return b.String(), nil
	}

	// Group routes per prefix, keeping first-appearance order.
	var prefixes []string
	byPrefix := make(map[string][]lgPeer)
	for _, rrc := range resp.Data.RRCs {
		for _, peer := range rrc.Peers {
			if _, seen := byPrefix[peer.Prefix]; !seen {
				prefixes = append(prefixes, peer.Prefix)
			}
			byPrefix[peer.Prefix] = append(byPrefix[peer.Prefix], peer)
		}
	}

	for _, prefix := range prefixes {
		fmt.Fprintf(&b, "# Routes for prefix %s\n", prefix)
		for _, peer := range byPrefix[prefix] {
			fmt.Fprintf(&b, "route %s via %s {\n", prefix, peer.NextHop)
			fmt.Fprintf(&b, "    # Peer: %s (AS%s)\n", peer.Peer, peer.ASNOrigin)
			fmt.Fprintf(&b, "    # AS-Path: %s\n", peer.ASPath)
			fmt.Fprintf(&b, "    # Origin: %s\n", peer.Origin)
			if peer.Community != "" {
				fmt.Fprintf(&b, "    # Communities: %s\n", peer.Community)
			}
			if peer.LargeCommunity != "" {
				fmt.Fprintf(&b, "    # Large Communities: %s\n", peer.LargeCommunity)
			}
			if peer.ExtendedCommunity != "" {
				fmt.Fprintf(&b, "    # Extended Communities: %s\n", peer.ExtendedCommunity)
			}
			fmt.Fprintf(&b, "    # Last Updated: %s\n", peer.LastUpdated)
			fmt.Fprintf(&b, "    # Latest Time: %s\n", peer.LatestTime)
			fmt.Fprintf(&b, "    bgp_path.len = %d;\n", len(strings.Fields(peer.ASPath)))
			fmt.Fprintf(&b, "    bgp_origin = %s;\n", strings.ToUpper(peer.Origin))
			fmt.Fprintf(&b, "    bgp_next_hop = %s;\n", peer.NextHop)
			for _, community := range strings.Fields(peer.Community) {
				asn, value, ok := strings.Cut(community, ":")
				if ok {
					fmt.Fprintf(&b, "    bgp_community.add((%s,%s));\n", asn, value)
				}
			}
			b.WriteString("}\n\n")
		}
	}

	totalRoutes := 0
	for _, rrc := range resp.Data.RRCs {
		totalRoutes += len(rrc.Peers)
	}
	fmt.Fprintf(&b, "# Summary: %d routes from %d RRC collectors\n", totalRoutes, len(resp.Data.RRCs))
	b.WriteString("# RRC Locations:\n")
	for _, rrc := range resp.Data.RRCs {
		fmt.Fprintf(&b, "#   %s: %s (%d peers)\n", rrc.RRC, rrc.Location, len(rrc.Peers))
	}
	return b.String(), nil
}
