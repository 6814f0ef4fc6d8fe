package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akaere/whoisd/pkg/config"
	"github.com/akaere/whoisd/pkg/dnsq"
	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/maintain"
	"github.com/akaere/whoisd/pkg/metrics"
	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/storage"
	"github.com/akaere/whoisd/pkg/trace"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
	"github.com/akaere/whoisd/pkg/upstream/globalping"
	"github.com/akaere/whoisd/pkg/upstream/whoisnet"
)

// HandlerFunc produces the response body for one classified query. Errors
// are rendered by the dispatcher, never surfaced to the connection.
type HandlerFunc func(ctx context.Context, q query.Query) (string, error)

// Deps carries every collaborator a handler may need. Handlers receive it
// by reference through the Dispatcher; none of them owns shared state.
type Deps struct {
	Registry   storage.Store
	PenStore   storage.Store
	Manrs      *maintain.Manrs
	Whois      *whoisnet.Client
	Iana       *whoisnet.IanaCache
	HTTP       *fetch.Client
	DNS        *dnsq.Resolver
	Tracer     *trace.Runner
	Globalping *globalping.Client
	Keys       config.Keys

	// Recipes holds the bundled Chinese recipe JSON for -MEAL-CN.
	Recipes []byte
}

// Dispatcher routes a classified query to its handler. The tag table is
// compiled once at construction.
type Dispatcher struct {
	deps     *Deps
	byTag    map[query.Tag]HandlerFunc
	fallback HandlerFunc
}

// New compiles the tag table over the given collaborators.
func New(deps *Deps) *Dispatcher {
	d := &Dispatcher{deps: deps}
	d.fallback = d.handleDefault
	d.byTag = map[query.Tag]HandlerFunc{
		query.TagEmail:       d.handleEmail,
		query.TagBGPTool:     d.handleBGPTool,
		query.TagPrefixes:    d.handlePrefixes,
		query.TagGeo:         d.handleUltimateGeo,
		query.TagUltimateGeo: d.handleUltimateGeo,
		query.TagRIRGeo:      d.handleRIRGeo,
		query.TagIRR:         d.handleIRRExplorer,
		query.TagLG:          d.handleLookingGlass,
		query.TagRADB:        d.handleIRRDirect,
		query.TagALTDB:       d.handleIRRDirect,
		query.TagAFRINIC:     d.handleIRRDirect,
		query.TagAPNIC:       d.handleIRRDirect,
		query.TagARIN:        d.handleIRRDirect,
		query.TagBELL:        d.handleIRRDirect,
		query.TagJPIRR:       d.handleIRRDirect,
		query.TagLACNIC:      d.handleIRRDirect,
		query.TagLEVEL3:      d.handleIRRDirect,
		query.TagNTTCOM:      d.handleIRRDirect,
		query.TagRIPE:        d.handleIRRDirect,
		query.TagTC:          d.handleIRRDirect,
		query.TagRPKI:        d.handleRPKI,
		query.TagMANRS:       d.handleMANRS,
		query.TagDNS:         d.handleDNS,
		query.TagTrace:       d.handleTrace,
		query.TagTraceroute:  d.handleTracerouteRemote,
		query.TagSSL:         d.handleSSL,
		query.TagCRT:         d.handleCRT,
		query.TagMinecraft:   d.handleMinecraft,
		query.TagMC:          d.handleMinecraft,
		query.TagSteam:       d.handleSteam,
		query.TagSteamSearch: d.handleSteamSearch,
		query.TagIMDB:        d.handleIMDB,
		query.TagIMDBSearch:  d.handleIMDBSearch,
		query.TagLyric:       d.handleLyric,
		query.TagWikipedia:   d.handleWikipedia,
		query.TagMeal:        d.handleMeal,
		query.TagMealCN:      d.handleMealCN,
		query.TagCargo:       d.handleCargo,
		query.TagPyPI:        d.handlePyPI,
		query.TagNPM:         d.handleNPM,
		query.TagAUR:         d.handleAUR,
		query.TagDebian:      d.handleDebian,
		query.TagUbuntu:      d.handleUbuntu,
		query.TagNixOS:       d.handleNixOS,
		query.TagOpenSUSE:    d.handleOpenSUSE,
		query.TagAOSC:        d.handleAOSC,
		query.TagEPEL:        d.handleEPEL,
		query.TagModrinth:    d.handleModrinth,
		query.TagCurseForge:  d.handleCurseForge,
		query.TagGitHub:      d.handleGitHub,
		query.TagHelp:        d.handleHelp,
		query.TagCFStatus:    d.handleCFStatus,
		query.TagACGC:        d.handleACGC,
		query.TagPEN:         d.handlePEN,
		query.TagPixiv:       d.handlePixiv,
	}
	return d
}

// Lookup returns the handler for a tag, falling back to the default
// handler for untagged queries. Exists so I4-style tests can iterate the
// tag set.
func (d *Dispatcher) Lookup(tag query.Tag) (HandlerFunc, bool) {
	if tag == "" {
		return d.fallback, false
	}
	if h, ok := d.byTag[tag]; ok {
		return h, true
	}
	return d.fallback, false
}

// Dispatch runs the query's handler and renders any failure into response
// text. It never returns an error and never lets a panic escape.
func (d *Dispatcher) Dispatch(ctx context.Context, q query.Query) (body string) {
	timer := metrics.NewTimer()
	tagLabel := string(q.Tag)
	if tagLabel == "" {
		tagLabel = "default"
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithComponent("handlers").Error().
				Str("query", q.Raw).
				Interface("panic", r).
				Msg("handler panicked")
			metrics.QueriesTotal.WithLabelValues(tagLabel, "panic").Inc()
			body = renderError(q, errkind.ErrInternal)
		}
		timer.ObserveDurationVec(metrics.QueryDuration, tagLabel)
	}()

	if q.Raw == "" {
		metrics.QueriesTotal.WithLabelValues(tagLabel, "invalid").Inc()
		return renderError(q, errkind.ErrInvalidQuery)
	}

	handler, _ := d.Lookup(q.Tag)
	out, err := handler(ctx, q)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(tagLabel, "error").Inc()
		log.WithQuery(q.Raw).Debug().Err(err).Msg("handler returned error")
		return renderError(q, err)
	}
	metrics.QueriesTotal.WithLabelValues(tagLabel, "ok").Inc()
	return out
}

// renderError maps the error taxonomy onto response text. NotFound reads
// as a positive confirmation, FeatureDisabled carries remediation, and
// anything unexpected collapses to a generic internal-error line.
func renderError(q query.Query, err error) string {
	switch {
	case errors.Is(err, errkind.ErrInvalidQuery):
		return "% Error: invalid query\n"
	case errors.Is(err, errkind.ErrNotFound):
		return fmt.Sprintf("%% No %s found for the requested object\n", q.Kind)
	case errors.Is(err, errkind.ErrFeatureDisabled):
		return fmt.Sprintf("%% This feature requires an API key that is not configured\n%%\n%% %s\n", strings.TrimSpace(errMessage(err)))
	case errors.Is(err, errkind.ErrTimeout):
		return "% Error: the upstream query timed out\n"
	case errors.Is(err, errkind.ErrUpstreamUnavailable):
		return fmt.Sprintf("%% Error: upstream unavailable: %s\n", errMessage(err))
	case errors.Is(err, errkind.ErrUpstreamMalformed):
		return "% Error: the upstream returned a malformed response\n"
	default:
		return "% Error: internal server error\n"
	}
}

// errMessage strips the sentinel suffix that errkind wrapping appends, so
// rendered text reads naturally.
func errMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []string{
		errkind.ErrUpstreamUnavailable.Error(),
		errkind.ErrFeatureDisabled.Error(),
	} {
		msg = strings.TrimSuffix(msg, ": "+sentinel)
	}
	return msg
}
