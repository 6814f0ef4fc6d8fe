package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/enrich"
	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

// Geolocation endpoints. The IPinfo lite tier works with a fixed public
// token; the Chinese sources need browser-ish headers to answer.
const (
	ripeMaxmindURL = "https://stat.ripe.net/data/maxmind-geo-lite/data.json?resource="
	ripeRIRGeoURL  = "https://stat.ripe.net/data/rir-geo/data.json?resource="
	ipinfoLiteURL  = "https://api.ipinfo.io/lite/"
	ipinfoToken    = "29a9fd77d1bd76"
	ipAPIURL       = "http://ip-api.com/json/"
	ipAPIFields    = "status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,mobile,proxy,hosting,query"
	bilibiliGeoURL = "https://api.live.bilibili.com/client/v1/Ip/getInfoNew?ip="
	meituanGeoURL  = "https://apimobile.meituan.com/locate/v2/ip/loc?rgeo=true&ip="
)

const geoSourceTimeout = 10 * time.Second

type ripeStatResponse struct {
	Status string `json:"status"`
	Data   *struct {
		LocatedResources []struct {
			Resource  string `json:"resource"`
			Locations []struct {
				Country   string   `json:"country"`
				City      string   `json:"city"`
				Latitude  *float64 `json:"latitude"`
				Longitude *float64 `json:"longitude"`
			} `json:"locations"`
		} `json:"located_resources"`
	} `json:"data"`
}

type ipinfoResponse struct {
	IP        string `json:"ip"`
	ASN       string `json:"asn"`
	ASName    string `json:"as_name"`
	ASDomain  string `json:"as_domain"`
	Country   string `json:"country"`
	Continent string `json:"continent"`
	City      string `json:"city"`
	Region    string `json:"region"`
}

type ipAPIResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	Region      string   `json:"region"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	Zip         string   `json:"zip"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Timezone    string   `json:"timezone"`
	ISP         string   `json:"isp"`
	Org         string   `json:"org"`
	AS          string   `json:"as"`
	Mobile      *bool    `json:"mobile"`
	Proxy       *bool    `json:"proxy"`
	Hosting     *bool    `json:"hosting"`
	Query       string   `json:"query"`
}

type bilibiliResponse struct {
	Data *struct {
		Addr      string `json:"addr"`
		Country   string `json:"country"`
		Province  string `json:"province"`
		City      string `json:"city"`
		ISP       string `json:"isp"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"data"`
}

type meituanResponse struct {
	Data *struct {
		IP        string  `json:"ip"`
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		FromWhere string  `json:"fromwhere"`
		RGeo      struct {
			Country  string `json:"country"`
			Province string `json:"province"`
			City     string `json:"city"`
			District string `json:"district"`
			ADCode   string `json:"adcode"`
		} `json:"rgeo"`
	} `json:"data"`
}

// geoSourceNames fixes the section order of the multi-source response.
var geoSourceNames = []string{
	"RIPE NCC STAT (MaxMind GeoLite2)", "IPinfo", "IP-API", "BiliBili", "Meituan",
}

// handleUltimateGeo queries all five geolocation sources in parallel and
// renders each section independently; a failed source renders an error
// line instead of suppressing the rest.
func (d *Dispatcher) handleUltimateGeo(ctx context.Context, q query.Query) (string, error) {
	resource := q.Payload
	tasks := []enrich.Task{
		{ID: geoSourceNames[0], Timeout: geoSourceTimeout, Run: func(ctx context.Context) ([]byte, error) {
			return d.renderRIPEMaxmind(ctx, resource)
		}},
		{ID: geoSourceNames[1], Timeout: geoSourceTimeout, Run: func(ctx context.Context) ([]byte, error) {
			return d.renderIPinfo(ctx, resource)
		}},
		{ID: geoSourceNames[2], Timeout: geoSourceTimeout, Run: func(ctx context.Context) ([]byte, error) {
			return d.renderIPAPI(ctx, resource)
		}},
		{ID: geoSourceNames[3], Timeout: geoSourceTimeout, Run: func(ctx context.Context) ([]byte, error) {
			return d.renderBiliBili(ctx, resource)
		}},
		{ID: geoSourceNames[4], Timeout: geoSourceTimeout, Run: func(ctx context.Context) ([]byte, error) {
			return d.renderMeituan(ctx, resource)
		}},
	}

	results := enrich.RunAll(ctx, tasks, len(tasks), 0)

	var b strings.Builder
	comment(&b, "Ultimate Multi-Source Geo Location Query")
	comment(&b, "Data from RIPE NCC STAT, IPinfo, IP-API, BiliBili, and Meituan")
	comment(&b, "Query: %s", resource)
	b.WriteByte('\n')

	for _, result := range results {
		section(&b, result.ID)
		if result.Err != nil {
			comment(&b, "Error: %s", errMessage(result.Err))
		} else {
			b.Write(result.Output)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (d *Dispatcher) renderRIPEMaxmind(ctx context.Context, resource string) ([]byte, error) {
	var resp ripeStatResponse
	if err := d.deps.HTTP.GetJSON(ctx, ripeMaxmindURL+url.QueryEscape(resource), &resp); err != nil {
		return nil, err
	}
	var b strings.Builder
	if resp.Data == nil || len(resp.Data.LocatedResources) == 0 {
		comment(&b, "No location data available")
		return []byte(b.String()), nil
	}
	for _, item := range resp.Data.LocatedResources {
		field(&b, "Resource", item.Resource)
		if len(item.Locations) == 0 {
			field(&b, "Country", "N/A")
			field(&b, "City", "N/A")
			continue
		}
		for _, loc := range item.Locations {
			field(&b, "Country", orNA(loc.Country))
			field(&b, "City", orNA(loc.City))
			if loc.Latitude != nil && loc.Longitude != nil {
				fieldf(&b, "Location", "%.4f, %.4f", *loc.Latitude, *loc.Longitude)
			} else {
				field(&b, "Location", "N/A")
			}
		}
	}
	return []byte(b.String()), nil
}

func (d *Dispatcher) renderIPinfo(ctx context.Context, resource string) ([]byte, error) {
	var resp ipinfoResponse
	if err := d.deps.HTTP.GetJSON(ctx, ipinfoLiteURL+url.PathEscape(resource)+"?token="+ipinfoToken, &resp); err != nil {
		return nil, err
	}
	var b strings.Builder
	field(&b, "Resource", resp.IP)
	field(&b, "Country", orNA(resp.Country))
	field(&b, "City", orNA(resp.City))
	field(&b, "ASN", orNA(resp.ASN))
	field(&b, "AS Name", orNA(resp.ASName))
	if resp.Continent != "" {
		field(&b, "Continent", resp.Continent)
	}
	if resp.Region != "" {
		field(&b, "Region", resp.Region)
	}
	if resp.ASDomain != "" {
		field(&b, "AS Domain", resp.ASDomain)
	}
	return []byte(b.String()), nil
}

func (d *Dispatcher) renderIPAPI(ctx context.Context, resource string) ([]byte, error) {
	var resp ipAPIResponse
	if err := d.deps.HTTP.GetJSON(ctx, ipAPIURL+url.PathEscape(resource)+"?fields="+ipAPIFields, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("ip-api: %s: %w", orNA(resp.Message), errkind.ErrUpstreamUnavailable)
	}
	var b strings.Builder
	field(&b, "Resource", resp.Query)
	fieldf(&b, "Country", "%s (%s)", orNA(resp.Country), orNA(resp.CountryCode))
	fieldf(&b, "Region", "%s (%s)", orNA(resp.RegionName), orNA(resp.Region))
	field(&b, "City", orNA(resp.City))
	if resp.Lat != nil && resp.Lon != nil {
		fieldf(&b, "Location", "%.4f, %.4f", *resp.Lat, *resp.Lon)
	}
	if resp.Zip != "" {
		field(&b, "ZIP", resp.Zip)
	}
	if resp.Timezone != "" {
		field(&b, "Timezone", resp.Timezone)
	}
	if resp.ISP != "" {
		field(&b, "ISP", resp.ISP)
	}
	if resp.Org != "" {
		field(&b, "Org", resp.Org)
	}
	if resp.AS != "" {
		field(&b, "ASN Info", resp.AS)
	}
	if resp.Mobile != nil {
		fieldf(&b, "Mobile", "%t", *resp.Mobile)
	}
	if resp.Proxy != nil {
		fieldf(&b, "Proxy", "%t", *resp.Proxy)
	}
	if resp.Hosting != nil {
		fieldf(&b, "Hosting", "%t", *resp.Hosting)
	}
	return []byte(b.String()), nil
}

func (d *Dispatcher) renderBiliBili(ctx context.Context, resource string) ([]byte, error) {
	var resp bilibiliResponse
	err := d.deps.HTTP.GetJSON(ctx, bilibiliGeoURL+url.QueryEscape(resource), &resp,
		fetch.WithBrowserUA(), fetch.WithHeader("Referer", "https://www.bilibili.com/"))
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if resp.Data == nil {
		comment(&b, "No data available")
		return []byte(b.String()), nil
	}
	field(&b, "Address", resp.Data.Addr)
	field(&b, "Country", orNA(resp.Data.Country))
	field(&b, "Province", orNA(resp.Data.Province))
	field(&b, "City", orNA(resp.Data.City))
	field(&b, "ISP", orNA(resp.Data.ISP))
	fieldf(&b, "Location", "%s, %s", orNA(resp.Data.Latitude), orNA(resp.Data.Longitude))
	return []byte(b.String()), nil
}

func (d *Dispatcher) renderMeituan(ctx context.Context, resource string) ([]byte, error) {
	var resp meituanResponse
	err := d.deps.HTTP.GetJSON(ctx, meituanGeoURL+url.QueryEscape(resource), &resp,
		fetch.WithBrowserUA(), fetch.WithHeader("Referer", "https://www.meituan.com/"))
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("meituan returned no data: %w", errkind.ErrUpstreamUnavailable)
	}
	var b strings.Builder
	field(&b, "Resource", resp.Data.IP)
	field(&b, "Country", orNA(resp.Data.RGeo.Country))
	field(&b, "Province", orNA(resp.Data.RGeo.Province))
	field(&b, "City", orNA(resp.Data.RGeo.City))
	field(&b, "District", orNA(resp.Data.RGeo.District))
	field(&b, "AD Code", orNA(resp.Data.RGeo.ADCode))
	fieldf(&b, "Location", "%.2f, %.2f", resp.Data.Lat, resp.Data.Lng)
	field(&b, "Source", orNA(resp.Data.FromWhere))
	return []byte(b.String()), nil
}

// handleRIRGeo renders RIR statistics locations for a resource.
func (d *Dispatcher) handleRIRGeo(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Status string `json:"status"`
		Data   *struct {
			LocatedResources []struct {
				Resource string `json:"resource"`
				Location string `json:"location"`
			} `json:"located_resources"`
		} `json:"data"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, ripeRIRGeoURL+url.QueryEscape(q.Payload), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	queryHeader(&b, "RIPE NCC STAT RIR Geographic Query", "RIR Statistics", q.Payload)

	if resp.Data == nil || len(resp.Data.LocatedResources) == 0 {
		comment(&b, "No RIR geographic data available")
		return b.String(), nil
	}

	b.WriteString("RIR Geographic Location Results\n")
	b.WriteString("===============================\n\n")
	b.WriteString("Resource                    | Country Code\n")
	b.WriteString("----------------------------|-------------\n")
	for _, item := range resp.Data.LocatedResources {
		fmt.Fprintf(&b, "%-27s | %s\n", truncate(item.Resource, 27), item.Location)
	}
	b.WriteByte('\n')
	comment(&b, "Total located resources: %d", len(resp.Data.LocatedResources))
	return b.String(), nil
}
