package whoisnet

import "github.com/akaere/whoisd/pkg/query"

// Well-known WHOIS endpoints. The IRR family maps one tag to one server;
// everything else goes through the IANA referral path.
const (
	IANAServer     = "whois.iana.org"
	DefaultServer  = "whois.ripe.net"
	RISServer      = "riswhois.ripe.net"
	BGPToolsServer = "bgp.tools"
)

// irrServers maps IRR/RIR suffix tags to their WHOIS hosts.
var irrServers = map[query.Tag]string{
	query.TagRADB:    "whois.radb.net",
	query.TagALTDB:   "whois.altdb.net",
	query.TagAFRINIC: "whois.afrinic.net",
	query.TagAPNIC:   "whois.apnic.net",
	query.TagARIN:    "rr.arin.net",
	query.TagBELL:    "whois.in.bell.ca",
	query.TagJPIRR:   "jpirr.nic.ad.jp",
	query.TagLACNIC:  "irr.lacnic.net",
	query.TagLEVEL3:  "rr.level3.net",
	query.TagNTTCOM:  "rr.ntt.net",
	query.TagRIPE:    "whois.ripe.net",
	query.TagTC:      "whois.bgp.net.br",
}

// IRRServer returns the WHOIS host for an IRR family tag.
func IRRServer(tag query.Tag) (string, bool) {
	server, ok := irrServers[tag]
	return server, ok
}
