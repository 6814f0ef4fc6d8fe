package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

const rpkiAPIBase = "https://rpki.akae.re/api/v1/validity"

type rpkiResponse struct {
	ValidatedRoute struct {
		Route struct {
			OriginASN string `json:"origin_asn"`
			Prefix    string `json:"prefix"`
		} `json:"route"`
		Validity struct {
			State       string `json:"state"`
			Description string `json:"description"`
			Reason      string `json:"reason"`
			VRPs        struct {
				Matched         []rpkiVRP `json:"matched"`
				UnmatchedAS     []rpkiVRP `json:"unmatched_as"`
				UnmatchedLength []rpkiVRP `json:"unmatched_length"`
			} `json:"VRPs"`
		} `json:"validity"`
	} `json:"validated_route"`
	GeneratedTime string `json:"generatedTime"`
}

type rpkiVRP struct {
	ASN       string `json:"asn"`
	Prefix    string `json:"prefix"`
	MaxLength string `json:"max_length"`
}

// handleRPKI validates a prefix/origin pair against the RPKI validator.
func (d *Dispatcher) handleRPKI(ctx context.Context, q query.Query) (string, error) {
	if q.RPKIPrefix == "" || q.RPKIOrigin == "" {
		return "", fmt.Errorf("rpki query needs prefix-asn form: %w", errkind.ErrInvalidQuery)
	}

	var resp rpkiResponse
	url := fmt.Sprintf("%s/%s/%s", rpkiAPIBase, q.RPKIOrigin, q.RPKIPrefix)
	if err := d.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	comment(&b, "RPKI Validation Query")
	comment(&b, "Data from rpki.akae.re")
	comment(&b, "Query: %s-%s-RPKI", q.RPKIPrefix, q.RPKIOrigin)
	comment(&b, "Generated Time: %s", resp.GeneratedTime)
	b.WriteByte('\n')

	route := resp.ValidatedRoute.Route
	b.WriteString("route:\n")
	fmt.Fprintf(&b, "  origin-asn:     %s\n", route.OriginASN)
	fmt.Fprintf(&b, "  prefix:         %s\n", route.Prefix)
	b.WriteByte('\n')

	validity := resp.ValidatedRoute.Validity
	b.WriteString("validity:\n")
	fmt.Fprintf(&b, "  state:          %s\n", validity.State)
	fmt.Fprintf(&b, "  description:    %s\n", validity.Description)
	if validity.Reason != "" {
		fmt.Fprintf(&b, "  reason:         %s\n", validity.Reason)
	}
	b.WriteByte('\n')

	b.WriteString("vrps:\n")
	writeVRPSet(&b, "matched", validity.VRPs.Matched)
	writeVRPSet(&b, "unmatched-as", validity.VRPs.UnmatchedAS)
	writeVRPSet(&b, "unmatched-length", validity.VRPs.UnmatchedLength)

	b.WriteByte('\n')
	comment(&b, "End of RPKI validation result")
	return b.String(), nil
}

func writeVRPSet(b *strings.Builder, name string, vrps []rpkiVRP) {
	if len(vrps) == 0 {
		label := name + ":"
		if len(label) < 16 {
			label += strings.Repeat(" ", 16-len(label))
		} else {
			label += " "
		}
		fmt.Fprintf(b, "  %snone\n", label)
		return
	}
	fmt.Fprintf(b, "  %s:\n", name)
	for _, vrp := range vrps {
		fmt.Fprintf(b, "    asn:          %s\n", vrp.ASN)
		fmt.Fprintf(b, "    prefix:       %s\n", vrp.Prefix)
		fmt.Fprintf(b, "    max-length:   %s\n", vrp.MaxLength)
		b.WriteByte('\n')
	}
}
