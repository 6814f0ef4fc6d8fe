package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

const omdbURL = "http://www.omdbapi.com/"

type omdbResponse struct {
	Response     string `json:"Response"`
	Error        string `json:"Error"`
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Rated        string `json:"Rated"`
	Released     string `json:"Released"`
	Runtime      string `json:"Runtime"`
	Genre        string `json:"Genre"`
	Director     string `json:"Director"`
	Writer       string `json:"Writer"`
	Actors       string `json:"Actors"`
	Plot         string `json:"Plot"`
	Language     string `json:"Language"`
	Country      string `json:"Country"`
	Awards       string `json:"Awards"`
	Metascore    string `json:"Metascore"`
	IMDBRating   string `json:"imdbRating"`
	IMDBVotes    string `json:"imdbVotes"`
	IMDBID       string `json:"imdbID"`
	Type         string `json:"Type"`
	BoxOffice    string `json:"BoxOffice"`
	Production   string `json:"Production"`
	Website      string `json:"Website"`
	TotalSeasons string `json:"totalSeasons"`
	Ratings      []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
}

type omdbSearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
}

// handleIMDB answers -IMDB queries via the OMDb API. tt-prefixed payloads
// query by IMDb ID, everything else by title with a search fallback.
func (d *Dispatcher) handleIMDB(ctx context.Context, q query.Query) (string, error) {
	if d.deps.Keys.OMDB == "" {
		return "", fmt.Errorf("imdb lookups need OMDB_API_KEY: %w", errkind.ErrFeatureDisabled)
	}

	param := "t=" + url.QueryEscape(q.Payload)
	if strings.HasPrefix(q.Payload, "tt") {
		param = "i=" + url.QueryEscape(q.Payload)
	}

	var resp omdbResponse
	reqURL := fmt.Sprintf("%s?%s&apikey=%s&plot=full", omdbURL, param, url.QueryEscape(d.deps.Keys.OMDB))
	if err := d.deps.HTTP.GetJSON(ctx, reqURL, &resp); err != nil {
		return "", err
	}
	if resp.Response != "True" {
		// title not found directly, try the search endpoint and follow
		// its first hit
		if id, ok := d.omdbFirstSearchHit(ctx, q.Payload); ok {
			detailURL := fmt.Sprintf("%s?i=%s&apikey=%s&plot=full", omdbURL, url.QueryEscape(id), url.QueryEscape(d.deps.Keys.OMDB))
			if err := d.deps.HTTP.GetJSON(ctx, detailURL, &resp); err != nil {
				return "", err
			}
		}
		if resp.Response != "True" {
			return fmt.Sprintf("IMDb Information Not Found for: %s\n%s\n", q.Payload, orNA(resp.Error)), nil
		}
	}
	return formatIMDBInfo(&resp), nil
}

func (d *Dispatcher) omdbFirstSearchHit(ctx context.Context, term string) (string, bool) {
	results, err := d.omdbSearch(ctx, term)
	if err != nil || len(results) == 0 {
		return "", false
	}
	return results[0].IMDBID, true
}

func (d *Dispatcher) omdbSearch(ctx context.Context, term string) ([]omdbSearchResult, error) {
	var resp struct {
		Response string             `json:"Response"`
		Search   []omdbSearchResult `json:"Search"`
	}
	reqURL := fmt.Sprintf("%s?s=%s&apikey=%s", omdbURL, url.QueryEscape(term), url.QueryEscape(d.deps.Keys.OMDB))
	if err := d.deps.HTTP.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Response != "True" {
		return nil, nil
	}
	return resp.Search, nil
}

// handleIMDBSearch lists up to ten title matches from OMDb.
func (d *Dispatcher) handleIMDBSearch(ctx context.Context, q query.Query) (string, error) {
	if d.deps.Keys.OMDB == "" {
		return "", fmt.Errorf("imdb lookups need OMDB_API_KEY: %w", errkind.ErrFeatureDisabled)
	}

	results, err := d.omdbSearch(ctx, q.Payload)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No IMDb search results found for: %s\n", q.Payload), nil
	}
	if len(results) > 10 {
		results = results[:10]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IMDb Search Results for: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Found %d titles:\n\n", len(results))

	for i, result := range results {
		fmt.Fprintf(&b, "%d. Title Information\n", i+1)
		b.WriteString(strings.Repeat("-", 25))
		b.WriteByte('\n')
		fmt.Fprintf(&b, "imdb-id: %s\n", result.IMDBID)
		fmt.Fprintf(&b, "title: %s\n", result.Title)
		fmt.Fprintf(&b, "year: %s\n", result.Year)
		fmt.Fprintf(&b, "type: %s\n", result.Type)
		fmt.Fprintf(&b, "imdb-url: https://www.imdb.com/title/%s/\n", result.IMDBID)
		b.WriteByte('\n')
	}

	comment(&b, "Use '%s-IMDB' to get detailed information for a specific title", results[0].IMDBID)
	comment(&b, "Search limited to top 10 results")
	return b.String(), nil
}

func formatIMDBInfo(imdb *omdbResponse) string {
	var b strings.Builder
	if imdb.Title != "" {
		fmt.Fprintf(&b, "IMDb Information for: %s\n", imdb.Title)
	} else {
		b.WriteString("IMDb Information\n")
	}
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')

	write := func(key, value string) {
		if value != "" && value != "N/A" {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}

	write("imdb-id", imdb.IMDBID)
	write("title", imdb.Title)
	write("year", imdb.Year)
	write("type", imdb.Type)
	write("rated", imdb.Rated)
	write("runtime", imdb.Runtime)
	write("genre", imdb.Genre)
	write("director", imdb.Director)
	write("writer", imdb.Writer)
	write("actors", imdb.Actors)
	write("language", imdb.Language)
	write("country", imdb.Country)
	write("released", imdb.Released)
	if imdb.IMDBRating != "" && imdb.IMDBRating != "N/A" {
		fmt.Fprintf(&b, "imdb-rating: %s/10\n", imdb.IMDBRating)
	}
	write("imdb-votes", imdb.IMDBVotes)
	if imdb.Metascore != "" && imdb.Metascore != "N/A" {
		fmt.Fprintf(&b, "metascore: %s/100\n", imdb.Metascore)
	}
	for _, rating := range imdb.Ratings {
		key := "rating-" + strings.ReplaceAll(strings.ToLower(rating.Source), " ", "-")
		fmt.Fprintf(&b, "%s: %s\n", key, rating.Value)
	}
	write("box-office", imdb.BoxOffice)
	write("awards", imdb.Awards)
	write("production", imdb.Production)
	write("website", imdb.Website)
	write("total-seasons", imdb.TotalSeasons)
	if imdb.Plot != "" && imdb.Plot != "N/A" {
		plot := strings.ReplaceAll(strings.ReplaceAll(imdb.Plot, "\r\n", " "), "\n", " ")
		fmt.Fprintf(&b, "plot: %s\n", plot)
	}
	if imdb.IMDBID != "" {
		fmt.Fprintf(&b, "imdb-url: https://www.imdb.com/title/%s/\n", imdb.IMDBID)
	}
	return b.String()
}
