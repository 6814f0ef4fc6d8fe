package query

import (
	"sort"
	"strings"
)

// Tag is a recognized query suffix, stored uppercase.
type Tag string

// The closed set of suffix tags. A query carries at most one.
const (
	TagEmail       Tag = "EMAIL"
	TagBGPTool     Tag = "BGPTOOL"
	TagPrefixes    Tag = "PREFIXES"
	TagGeo         Tag = "GEO"
	TagRIRGeo      Tag = "RIRGEO"
	TagUltimateGeo Tag = "ULTIMATEGEO"
	TagIRR         Tag = "IRR"
	TagLG          Tag = "LG"
	TagRADB        Tag = "RADB"
	TagALTDB       Tag = "ALTDB"
	TagAFRINIC     Tag = "AFRINIC"
	TagAPNIC       Tag = "APNIC"
	TagARIN        Tag = "ARIN"
	TagBELL        Tag = "BELL"
	TagJPIRR       Tag = "JPIRR"
	TagLACNIC      Tag = "LACNIC"
	TagLEVEL3      Tag = "LEVEL3"
	TagNTTCOM      Tag = "NTTCOM"
	TagRIPE        Tag = "RIPE"
	TagTC          Tag = "TC"
	TagRPKI        Tag = "RPKI"
	TagMANRS       Tag = "MANRS"
	TagDNS         Tag = "DNS"
	TagTrace       Tag = "TRACE"
	TagTraceroute  Tag = "TRACEROUTE"
	TagSSL         Tag = "SSL"
	TagCRT         Tag = "CRT"
	TagMinecraft   Tag = "MINECRAFT"
	TagMC          Tag = "MC"
	TagSteam       Tag = "STEAM"
	TagSteamSearch Tag = "STEAMSEARCH"
	TagIMDB        Tag = "IMDB"
	TagIMDBSearch  Tag = "IMDBSEARCH"
	TagLyric       Tag = "LYRIC"
	TagWikipedia   Tag = "WIKIPEDIA"
	TagMeal        Tag = "MEAL"
	TagMealCN      Tag = "MEAL-CN"
	TagCargo       Tag = "CARGO"
	TagPyPI        Tag = "PYPI"
	TagNPM         Tag = "NPM"
	TagAUR         Tag = "AUR"
	TagDebian      Tag = "DEBIAN"
	TagUbuntu      Tag = "UBUNTU"
	TagNixOS       Tag = "NIXOS"
	TagOpenSUSE    Tag = "OPENSUSE"
	TagAOSC        Tag = "AOSC"
	TagEPEL        Tag = "EPEL"
	TagModrinth    Tag = "MODRINTH"
	TagCurseForge  Tag = "CURSEFORGE"
	TagGitHub      Tag = "GITHUB"
	TagHelp        Tag = "HELP"
	TagCFStatus    Tag = "CFSTATUS"
	TagACGC        Tag = "ACGC"
	TagPEN         Tag = "PEN"
	TagPixiv       Tag = "PIXIV"
)

// AllTags is the closed tag set. Compiled once into the suffix matcher.
var AllTags = []Tag{
	TagEmail, TagBGPTool, TagPrefixes, TagGeo, TagRIRGeo, TagUltimateGeo,
	TagIRR, TagLG, TagRADB, TagALTDB, TagAFRINIC, TagAPNIC, TagARIN,
	TagBELL, TagJPIRR, TagLACNIC, TagLEVEL3, TagNTTCOM, TagRIPE, TagTC,
	TagRPKI, TagMANRS, TagDNS, TagTrace, TagTraceroute, TagSSL, TagCRT,
	TagMinecraft, TagMC, TagSteam, TagSteamSearch, TagIMDB, TagIMDBSearch,
	TagLyric, TagWikipedia, TagMeal, TagMealCN, TagCargo, TagPyPI, TagNPM,
	TagAUR, TagDebian, TagUbuntu, TagNixOS, TagOpenSUSE, TagAOSC, TagEPEL,
	TagModrinth, TagCurseForge, TagGitHub, TagHelp, TagCFStatus, TagACGC,
	TagPEN, TagPixiv,
}

// tagsByLength holds the tag set longest-first so compound tags
// (STEAMSEARCH, TRACEROUTE, MEAL-CN) win over their shorter prefixes.
var tagsByLength = func() []Tag {
	tags := make([]Tag, len(AllTags))
	copy(tags, AllTags)
	sort.SliceStable(tags, func(i, j int) bool {
		return len(tags[i]) > len(tags[j])
	})
	return tags
}()

// matchTag performs a case-insensitive longest-suffix match of "-<TAG>"
// against the closed set and returns the tag and the pre-stripped payload.
// A bare "HELP" with no payload is also recognized.
func matchTag(raw string) (Tag, string, bool) {
	upper := strings.ToUpper(raw)
	if upper == string(TagHelp) {
		return TagHelp, "", true
	}
	for _, tag := range tagsByLength {
		suffix := "-" + string(tag)
		if strings.HasSuffix(upper, suffix) {
			payload := strings.TrimSpace(raw[:len(raw)-len(suffix)])
			return tag, payload, true
		}
	}
	return "", raw, false
}
