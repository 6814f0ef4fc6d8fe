package handlers

import (
	"context"

	"github.com/akaere/whoisd/pkg/query"
)

// handleHelp returns the static usage text.
func (d *Dispatcher) handleHelp(ctx context.Context, q query.Query) (string, error) {
	return helpText, nil
}

const helpText = `WHOIS Server - Query Help
============================================================

This WHOIS server supports multiple query types and services.
Simply type your query followed by the appropriate suffix.

BASIC QUERIES:
----------------------------------------
domain.com          - Domain WHOIS information
192.168.1.1         - IPv4 address information
2001:db8::1         - IPv6 address information
AS15169             - ASN (Autonomous System) information
192.168.0.0/24      - CIDR block information

ENHANCED QUERIES:
----------------------------------------
domain.com-EMAIL    - Search for email addresses in WHOIS data
example: google.com-EMAIL

AS15169-BGPTOOL     - BGP routing analysis and statistics
example: AS15169-BGPTOOL

AS15169-PREFIXES    - List all prefixes announced by ASN
example: AS15169-PREFIXES

GEO-LOCATION SERVICES:
----------------------------------------
8.8.8.8-GEO         - Multi-source IP geolocation
example: 8.8.8.8-GEO

8.8.8.8-RIRGEO      - RIR geolocation (registry data)
example: 8.8.8.8-RIRGEO

ROUTING & REGISTRY SERVICES:
----------------------------------------
AS15169-IRR         - IRR Explorer routing registry analysis
example: AS15169-IRR

8.8.8.8-LG          - RIPE RIS Looking Glass query
example: 8.8.8.8-LG

AS15169-RADB        - Routing Assets Database query
example: AS15169-RADB

AS15169-ALTDB       - ALTDB routing registry query
example: AS15169-ALTDB

AS15169-AFRINIC     - AFRINIC IRR query
example: AS15169-AFRINIC

AS15169-APNIC       - APNIC IRR query
example: AS15169-APNIC

AS15169-ARIN        - ARIN IRR query
example: AS15169-ARIN

AS15169-BELL        - BELL IRR query
example: AS15169-BELL

AS15169-JPIRR       - JPIRR query
example: AS15169-JPIRR

AS15169-LACNIC      - LACNIC IRR query
example: AS15169-LACNIC

AS15169-LEVEL3      - LEVEL3 IRR query
example: AS15169-LEVEL3

AS15169-NTTCOM      - NTTCOM IRR query
example: AS15169-NTTCOM

AS15169-RIPE        - RIPE IRR query
example: AS15169-RIPE

AS15169-TC          - TC (Telecom) IRR query
example: AS15169-TC

8.8.0.0/16-15169-RPKI - RPKI validation (prefix-asn-RPKI)
example: 8.8.0.0/16-15169-RPKI

AS15169-MANRS       - MANRS (routing security) compliance
example: AS15169-MANRS

NETWORK DIAGNOSTICS:
----------------------------------------
google.com-DNS      - DNS resolution information
example: google.com-DNS

google.com-TRACE    - Network traceroute to target
google.com-TRACEROUTE - Alternative traceroute format
example: google.com-TRACE

SECURITY & CERTIFICATES:
----------------------------------------
google.com-SSL      - SSL/TLS certificate analysis
example: google.com-SSL

google.com-CRT      - Certificate Transparency logs
example: google.com-CRT

GAMING SERVICES:
----------------------------------------
mc.hypixel.net-MINECRAFT - Minecraft server status
mc.hypixel.net-MC   - Minecraft server status (short)
example: mc.hypixel.net-MINECRAFT

730-STEAM           - Steam game/user information
example: 730-STEAM (Counter-Strike 2)

Counter-Strike-STEAMSEARCH - Steam game search
example: Counter-Strike-STEAMSEARCH

MEDIA & ENTERTAINMENT:
----------------------------------------
Inception-IMDB      - IMDb movie/TV show information
tt1375666-IMDB      - IMDb by ID (tt1375666 = Inception)
example: Inception-IMDB

Batman-IMDBSEARCH   - IMDb title search
example: Batman-IMDBSEARCH

洛天依-LYRIC        - Luotianyi random lyrics
example: 洛天依-LYRIC

Hatsune-WIKIPEDIA   - Wikipedia article lookup
example: Rust_programming_language-WIKIPEDIA

利姆鲁-ACGC         - Moegirl Wiki character information
example: 利姆鲁-ACGC

92803-PIXIV         - Pixiv artwork/user/search/ranking
example: 92803-PIXIV or user:11-PIXIV or search:初音-PIXIV

今天吃什么          - Random meal suggestion (TheMealDB)
example: 今天吃什么 or -MEAL

今天吃什么中国      - Random Chinese recipe (HowToCook)
example: 今天吃什么中国 or -MEAL-CN

PACKAGE REPOSITORIES:
----------------------------------------
serde-CARGO         - Rust crates.io package information
example: serde-CARGO

requests-PYPI       - Python PyPI package information
example: requests-PYPI

react-NPM           - Node.js NPM package information
example: react-NPM

yay-AUR             - Arch User Repository packages
example: yay-AUR

curl-DEBIAN         - Debian package information
example: curl-DEBIAN

firefox-UBUNTU      - Ubuntu package information
example: firefox-UBUNTU

nixpkgs-NIXOS       - NixOS package information
example: nixpkgs-NIXOS

zypper-OPENSUSE     - OpenSUSE package information
example: zypper-OPENSUSE

htop-AOSC           - AOSC OS package information
example: htop-AOSC

epel-release-EPEL   - EPEL repository information
example: epel-release-EPEL

sodium-MODRINTH     - Modrinth mod/resource pack information
example: sodium-MODRINTH

jei-CURSEFORGE      - CurseForge mod information (requires API key)
example: jei-CURSEFORGE or 238222-CURSEFORGE

DEVELOPMENT SERVICES:
----------------------------------------
torvalds-GITHUB     - GitHub user/repository information
microsoft/vscode-GITHUB - GitHub repository info
example: torvalds-GITHUB

IANA REGISTRY SERVICES:
----------------------------------------
32473-PEN           - IANA Private Enterprise Number lookup
cisco-PEN           - PEN search by organization name
example: 32473-PEN

STATUS SERVICES:
----------------------------------------
cfstatus or -CFSTATUS       - Cloudflare overall status
components-CFSTATUS         - Cloudflare component details
incidents-CFSTATUS          - Unresolved Cloudflare incidents

DN42 NETWORK QUERIES:
----------------------------------------
example.dn42        - DN42 domain information
AS4242420000        - DN42 ASN information
172.20.0.0/16       - DN42 network blocks
fd42::/16           - DN42 IPv6 networks

SPECIAL COMMANDS:
----------------------------------------
HELP                - Show this help message

WHOIS-COLOR PROTOCOL:
----------------------------------------
This server supports WHOIS-COLOR protocol v1.0 for enhanced output.
Send 'X-WHOIS-COLOR-PROBE: 1' to detect color support.
Use 'X-WHOIS-COLOR: ripe' or 'X-WHOIS-COLOR: bgptools' for colored output.

EXAMPLES:
----------------------------------------
# Basic WHOIS queries
whois -h whois.akae.re google.com
whois -h whois.akae.re 8.8.8.8
whois -h whois.akae.re AS15169

# Enhanced queries
whois -h whois.akae.re google.com-EMAIL
whois -h whois.akae.re 8.8.8.8-GEO
whois -h whois.akae.re AS15169-MANRS

# Package queries
whois -h whois.akae.re serde-CARGO
whois -h whois.akae.re requests-PYPI
whois -h whois.akae.re react-NPM

# Gaming and media
whois -h whois.akae.re 730-STEAM
whois -h whois.akae.re Inception-IMDB
whois -h whois.akae.re mc.hypixel.net-MINECRAFT

# Color support test
echo -e "X-WHOIS-COLOR-PROBE: 1\r\n\r\n" | nc whois.akae.re 43
echo -e "X-WHOIS-COLOR: ripe\r\nAS15169\r\n" | nc whois.akae.re 43

SERVER INFORMATION:
----------------------------------------
Server: whois.akae.re (port 43)
License: AGPL-3.0-or-later
Source: https://github.com/akaere/whoisd

% This help information is provided by WHOIS server
% Please report any issues to noc@akae.re
`
