package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/query"
)

const wikipediaAPIURL = "https://en.wikipedia.org/w/api.php"

type wikipediaPage struct {
	PageID     int    `json:"pageid"`
	Title      string `json:"title"`
	Extract    string `json:"extract"`
	FullURL    string `json:"fullurl"`
	EditURL    string `json:"editurl"`
	Length     int    `json:"length"`
	Touched    string `json:"touched"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories"`
	LangLinks []struct {
		Lang  string `json:"lang"`
		Title string `json:"*"`
	} `json:"langlinks"`
}

type wikipediaResponse struct {
	Query *struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
		Pages map[string]wikipediaPage `json:"pages"`
	} `json:"query"`
}

// handleWikipedia finds the best-matching English Wikipedia article for
// the query and renders its summary.
func (d *Dispatcher) handleWikipedia(ctx context.Context, q query.Query) (string, error) {
	title, ok, err := d.wikipediaSearch(ctx, q.Payload)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Wikipedia Article Not Found: %s\nNo matching articles found on Wikipedia.\n", q.Payload), nil
	}
	return d.wikipediaArticle(ctx, title)
}

func (d *Dispatcher) wikipediaSearch(ctx context.Context, term string) (string, bool, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"search"},
		"srsearch":    {term},
		"srlimit":     {"5"},
		"srnamespace": {"0"},
		"srprop":      {"size|wordcount|timestamp|snippet"},
		"utf8":        {"1"},
	}
	var resp wikipediaResponse
	if err := d.deps.HTTP.GetJSON(ctx, wikipediaAPIURL+"?"+params.Encode(), &resp); err != nil {
		return "", false, err
	}
	if resp.Query == nil || len(resp.Query.Search) == 0 {
		return "", false, nil
	}
	return resp.Query.Search[0].Title, true, nil
}

func (d *Dispatcher) wikipediaArticle(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":          {"query"},
		"format":          {"json"},
		"titles":          {title},
		"prop":            {"extracts|info|categories|langlinks"},
		"exintro":         {"1"},
		"explaintext":     {"1"},
		"exsectionformat": {"plain"},
		"exlimit":         {"1"},
		"inprop":          {"url|length|touched"},
		"cllimit":         {"10"},
		"lllimit":         {"10"},
		"utf8":            {"1"},
	}
	var resp wikipediaResponse
	if err := d.deps.HTTP.GetJSON(ctx, wikipediaAPIURL+"?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Query != nil {
		for _, page := range resp.Query.Pages {
			if page.PageID > 0 {
				return formatWikipediaArticle(&page), nil
			}
		}
	}
	return fmt.Sprintf("Wikipedia Article Not Found: %s\nNo matching articles found on Wikipedia.\n", title), nil
}

func formatWikipediaArticle(page *wikipediaPage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wikipedia Article Information: %s\n", page.Title)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "page-id: %d\n", page.PageID)
	fmt.Fprintf(&b, "title: %s\n", page.Title)
	b.WriteString("source: Wikipedia (English)\n")
	if page.Length > 0 {
		fmt.Fprintf(&b, "article-length: %d bytes\n", page.Length)
	}
	if page.Touched != "" {
		if t, err := time.Parse(time.RFC3339, page.Touched); err == nil {
			fmt.Fprintf(&b, "last-modified: %s\n", utcStamp(t))
		} else {
			fmt.Fprintf(&b, "last-modified: %s\n", page.Touched)
		}
	}
	if page.Extract != "" {
		summary := strings.Join(strings.Fields(page.Extract), " ")
		if len(summary) > 800 {
			summary = summary[:800] + "..."
		}
		fmt.Fprintf(&b, "summary: %s\n", summary)
	}
	if len(page.Categories) > 0 {
		names := make([]string, 0, len(page.Categories))
		for _, category := range page.Categories {
			names = append(names, strings.TrimPrefix(category.Title, "Category:"))
		}
		fmt.Fprintf(&b, "categories: %s\n", strings.Join(names, ", "))
	}
	if len(page.LangLinks) > 0 {
		langs := make([]string, 0, len(page.LangLinks))
		for _, link := range page.LangLinks {
			langs = append(langs, fmt.Sprintf("%s (%s)", link.Lang, link.Title))
		}
		fmt.Fprintf(&b, "languages: %s\n", strings.Join(langs, ", "))
	}
	if page.FullURL != "" {
		fmt.Fprintf(&b, "wikipedia-url: %s\n", page.FullURL)
	} else {
		fmt.Fprintf(&b, "wikipedia-url: https://en.wikipedia.org/wiki/%s\n", url.PathEscape(page.Title))
	}
	if page.EditURL != "" {
		fmt.Fprintf(&b, "edit-url: %s\n", page.EditURL)
	}
	b.WriteByte('\n')
	comment(&b, "Information retrieved from Wikipedia via MediaWiki API")
	comment(&b, "Query processed by WHOIS server")
	return b.String()
}
