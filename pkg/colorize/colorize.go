package colorize

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// Scheme selects one of the supported colour palettes.
type Scheme string

const (
	SchemeRipe     Scheme = "ripe"
	SchemeBGPTools Scheme = "bgptools"
)

// Schemes is the advertised scheme list, in negotiation order.
const Schemes = "ripe,bgptools"

// ParseScheme maps a negotiated scheme name onto a Scheme.
func ParseScheme(s string) (Scheme, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ripe":
		return SchemeRipe, true
	case "bgptools":
		return SchemeBGPTools, true
	}
	return "", false
}

// forced builds a colour that renders even without a TTY. The daemon writes
// to sockets, so fatih/color's terminal detection must not suppress output.
func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

var (
	comment = forced(color.FgHiBlack)

	ripeNetwork = pair(forced(color.FgHiCyan, color.Bold), forced(color.FgHiCyan))
	ripeDomain  = pair(forced(color.FgHiCyan, color.Bold), forced(color.FgHiCyan, color.Bold))
	ripeASN     = pair(forced(color.FgHiYellow, color.Bold), forced(color.FgHiYellow))
	ripeContact = pair(forced(color.FgGreen), forced(color.FgGreen))
	ripeName    = pair(forced(color.FgHiGreen, color.Bold), forced(color.FgHiGreen, color.Bold))
	ripeOrg     = pair(forced(color.FgYellow), forced(color.FgYellow))
	ripeDescr   = pair(forced(color.FgHiCyan), forced(color.FgHiCyan))
	ripeGeo     = pair(forced(color.FgHiMagenta, color.Bold), forced(color.FgHiMagenta))
	ripeDate    = pair(forced(color.FgHiMagenta, color.Bold), forced(color.FgHiMagenta))
	ripeURL     = pair(forced(color.FgHiBlue, color.Bold), forced(color.FgHiBlue, color.Underline))

	statusValid   = pair(forced(color.FgHiGreen, color.Bold), forced(color.FgHiGreen))
	statusInvalid = pair(forced(color.FgHiRed, color.Bold), forced(color.FgHiRed))
	statusOther   = pair(forced(color.FgHiYellow, color.Bold), forced(color.FgHiYellow))

	bgpASN      = pair(forced(color.FgHiRed), forced(color.FgHiRed))
	bgpNetwork  = pair(forced(color.FgHiCyan), forced(color.FgHiCyan))
	bgpCountry  = pair(forced(color.FgHiYellow), forced(color.FgHiYellow))
	bgpRegistry = pair(forced(color.FgHiBlue), forced(color.FgHiBlue))
	bgpDate     = pair(forced(color.FgHiMagenta), forced(color.FgHiMagenta))
	bgpName     = pair(forced(color.FgHiWhite, color.Bold), forced(color.FgHiWhite, color.Bold))
	bgpGeo      = pair(forced(color.FgMagenta), forced(color.FgMagenta))
	bgpContact  = pair(forced(color.FgBlue), forced(color.FgBlue))

	// fallback rotation for attributes outside the known groups
	rainbow = []*color.Color{
		forced(color.FgRed), forced(color.FgGreen), forced(color.FgYellow),
		forced(color.FgBlue), forced(color.FgMagenta), forced(color.FgCyan),
	}

	asnPattern    = regexp.MustCompile(`AS\d+`)
	addrPattern   = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+(?:/\d+)?|[0-9a-fA-F:]+::[0-9a-fA-F:]*(?:/\d+)?`)
	domainPattern = regexp.MustCompile(`(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}`)
)

type colorPair struct {
	key *color.Color
	val *color.Color
}

func pair(key, val *color.Color) colorPair {
	return colorPair{key: key, val: val}
}

func (p colorPair) render(attr, value string) string {
	return p.key.Sprint(attr+":") + p.val.Sprint(value)
}

var ripeAttrs = map[string]colorPair{
	"inetnum": ripeNetwork, "inet6num": ripeNetwork, "route": ripeNetwork,
	"route6": ripeNetwork, "network": ripeNetwork, "prefix": ripeNetwork,
	"domain": ripeDomain, "nserver": ripeDomain, "dns": ripeDomain,
	"origin": ripeASN, "aut-num": ripeASN, "as-name": ripeASN, "asn": ripeASN,
	"person": ripeContact, "admin-c": ripeContact, "tech-c": ripeContact,
	"mnt-by": ripeContact, "contact": ripeContact, "email": ripeContact,
	"netname": ripeName, "name": ripeName,
	"org": ripeOrg, "orgname": ripeOrg, "org-name": ripeOrg, "organisation": ripeOrg,
	"descr": ripeDescr, "description": ripeDescr,
	"country": ripeGeo, "address": ripeGeo, "city": ripeGeo, "region": ripeGeo, "geoloc": ripeGeo,
	"created": ripeDate, "changed": ripeDate, "last-modified": ripeDate,
	"expires": ripeDate, "updated": ripeDate,
	"url": ripeURL, "homepage": ripeURL,
}

var bgpAttrs = map[string]colorPair{
	"origin": bgpASN, "aut-num": bgpASN, "as-name": bgpASN, "asn": bgpASN,
	"route": bgpNetwork, "route6": bgpNetwork, "inetnum": bgpNetwork,
	"inet6num": bgpNetwork, "prefix": bgpNetwork, "network": bgpNetwork,
	"country": bgpCountry, "country-code": bgpCountry,
	"registry": bgpRegistry, "rir": bgpRegistry, "source": bgpRegistry,
	"allocated": bgpDate, "assigned": bgpDate, "created": bgpDate, "changed": bgpDate,
	"netname": bgpName, "orgname": bgpName, "org-name": bgpName,
	"city": bgpGeo, "region": bgpGeo, "geoloc": bgpGeo, "address": bgpGeo,
	"person": bgpContact, "admin-c": bgpContact, "tech-c": bgpContact,
	"mnt-by": bgpContact, "contact": bgpContact,
}

var statusAttrs = map[string]bool{
	"status": true, "state": true, "rpki-status": true, "validation": true,
}

// Colorize renders RPSL-style key:value output with the scheme's palette.
// Comment lines go gray, known attributes use their group colour, and
// unknown attributes rotate through a stable per-name colour so repeated
// fields stay consistent within one response.
func Colorize(scheme Scheme, text string) string {
	var b strings.Builder
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(colorizeLine(scheme, line))
	}
	return b.String()
}

func colorizeLine(scheme Scheme, line string) string {
	if strings.HasPrefix(line, "%") {
		return comment.Sprint(line)
	}
	attr, value, ok := splitAttr(line)
	if !ok {
		return line
	}

	if statusAttrs[strings.ToLower(attr)] {
		return statusPair(value).render(attr, value)
	}

	switch scheme {
	case SchemeBGPTools:
		if p, known := bgpAttrs[strings.ToLower(attr)]; known {
			return p.render(attr, styleNetworkValues(value))
		}
		return fallbackPair(attr).render(attr, styleNetworkValues(value))
	default:
		if p, known := ripeAttrs[strings.ToLower(attr)]; known {
			return p.render(attr, value)
		}
		return fallbackPair(attr).render(attr, value)
	}
}

func splitAttr(line string) (attr, value string, ok bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return "", "", false
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	return line[:idx], line[idx+1:], true
}

func statusPair(value string) colorPair {
	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "invalid"):
		return statusInvalid
	case strings.Contains(lower, "valid"):
		return statusValid
	default:
		return statusOther
	}
}

func fallbackPair(attr string) colorPair {
	hash := 0
	for _, r := range attr {
		hash += int(r)
	}
	c := rainbow[hash%len(rainbow)]
	return pair(c, c)
}

// styleNetworkValues highlights ASNs, addresses and domains inside a value,
// the way bgp.tools columns distinguish them. Domains go last so the
// pattern cannot re-match inside an already inserted escape sequence.
func styleNetworkValues(value string) string {
	value = asnPattern.ReplaceAllStringFunc(value, func(m string) string {
		return forced(color.FgHiYellow).Sprint(m)
	})
	value = addrPattern.ReplaceAllStringFunc(value, func(m string) string {
		return forced(color.FgHiGreen).Sprint(m)
	})
	if !strings.Contains(value, "\x1b") {
		value = domainPattern.ReplaceAllStringFunc(value, func(m string) string {
			return forced(color.FgHiBlue).Sprint(m)
		})
	}
	return value
}
