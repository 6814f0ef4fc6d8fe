package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

const (
	modrinthProjectURL = "https://api.modrinth.com/v2/project/"
	modrinthSearchURL  = "https://api.modrinth.com/v2/search?limit=5&query="
	curseforgeModURL   = "https://api.curseforge.com/v1/mods/"
)

type modrinthProject struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	ProjectType string   `json:"project_type"`
	Description string   `json:"description"`
	Downloads   uint64   `json:"downloads"`
	Followers   int      `json:"followers"`
	Categories  []string `json:"categories"`
	ClientSide  string   `json:"client_side"`
	ServerSide  string   `json:"server_side"`
	Published   string   `json:"published"`
	Updated     string   `json:"updated"`
	License     *struct {
		ID string `json:"id"`
	} `json:"license"`
	GameVersions []string `json:"game_versions"`
	SourceURL    string   `json:"source_url"`
	IssuesURL    string   `json:"issues_url"`
	WikiURL      string   `json:"wiki_url"`
	DiscordURL   string   `json:"discord_url"`
}

// handleModrinth resolves an exact project slug first and falls back to a
// search listing.
func (d *Dispatcher) handleModrinth(ctx context.Context, q query.Query) (string, error) {
	var project modrinthProject
	err := d.deps.HTTP.GetJSON(ctx, modrinthProjectURL+url.PathEscape(q.Payload), &project)
	if err == nil && project.Slug != "" {
		return formatModrinthProject(&project), nil
	}
	return d.modrinthSearch(ctx, q.Payload)
}

func formatModrinthProject(project *modrinthProject) string {
	var b strings.Builder
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	fmt.Fprintf(&b, "%% Modrinth: %s (%s)\n", project.Title, strings.ToUpper(project.ProjectType))
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	b.WriteString("% \n")

	field(&b, "project-slug", project.Slug)
	field(&b, "project-name", project.Title)
	field(&b, "project-type", project.ProjectType)
	field(&b, "description", project.Description)
	b.WriteString("% \n% --- Statistics ---\n")
	field(&b, "downloads", strconv.FormatUint(project.Downloads, 10))
	field(&b, "followers", strconv.Itoa(project.Followers))
	if len(project.Categories) > 0 {
		field(&b, "categories", strings.Join(project.Categories, ", "))
	}
	field(&b, "client-side", project.ClientSide)
	field(&b, "server-side", project.ServerSide)
	if project.License != nil && project.License.ID != "" {
		field(&b, "license", project.License.ID)
	}
	if len(project.GameVersions) > 0 {
		field(&b, "mc-versions", fmt.Sprintf("%d versions available", len(project.GameVersions)))
	}
	if project.SourceURL != "" {
		field(&b, "source-url", project.SourceURL)
	}
	if project.IssuesURL != "" {
		field(&b, "issues-url", project.IssuesURL)
	}
	if project.WikiURL != "" {
		field(&b, "wiki-url", project.WikiURL)
	}
	if project.DiscordURL != "" {
		field(&b, "discord-url", project.DiscordURL)
	}
	field(&b, "created", project.Published)
	field(&b, "updated", project.Updated)
	field(&b, "modrinth-url", "https://modrinth.com/mod/"+project.Slug)
	return b.String()
}

func (d *Dispatcher) modrinthSearch(ctx context.Context, term string) (string, error) {
	var resp struct {
		TotalHits int `json:"total_hits"`
		Hits      []struct {
			Slug         string   `json:"slug"`
			Title        string   `json:"title"`
			ProjectType  string   `json:"project_type"`
			Description  string   `json:"description"`
			Author       string   `json:"author"`
			Downloads    uint64   `json:"downloads"`
			Follows      int      `json:"follows"`
			Categories   []string `json:"categories"`
			ClientSide   string   `json:"client_side"`
			ServerSide   string   `json:"server_side"`
			License      string   `json:"license"`
			Versions     []string `json:"versions"`
			IconURL      string   `json:"icon_url"`
			DateCreated  string   `json:"date_created"`
			DateModified string   `json:"date_modified"`
		} `json:"hits"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, modrinthSearchURL+url.QueryEscape(term), &resp); err != nil {
		return "", err
	}
	if len(resp.Hits) == 0 {
		return fmt.Sprintf("%% No Modrinth projects found for: %s\n", term), nil
	}

	var b strings.Builder
	comment(&b, "Modrinth Search Results for: %s", term)
	comment(&b, "Total results: %d", resp.TotalHits)
	b.WriteString("% \n")
	for i, hit := range resp.Hits {
		comment(&b, "--- Result %d ---", i+1)
		field(&b, "project-slug", hit.Slug)
		field(&b, "project-name", hit.Title)
		field(&b, "project-type", hit.ProjectType)
		field(&b, "description", hit.Description)
		field(&b, "author", hit.Author)
		field(&b, "downloads", strconv.FormatUint(hit.Downloads, 10))
		field(&b, "followers", strconv.Itoa(hit.Follows))
		field(&b, "categories", strings.Join(hit.Categories, ", "))
		field(&b, "client-side", hit.ClientSide)
		field(&b, "server-side", hit.ServerSide)
		field(&b, "license", hit.License)
		if len(hit.Versions) > 0 {
			field(&b, "mc-versions", fmt.Sprintf("%d versions available", len(hit.Versions)))
		}
		if hit.IconURL != "" {
			field(&b, "icon-url", hit.IconURL)
		}
		field(&b, "created", hit.DateCreated)
		field(&b, "updated", hit.DateModified)
		field(&b, "modrinth-url", "https://modrinth.com/mod/"+hit.Slug)
		if i < len(resp.Hits)-1 {
			b.WriteString("% \n")
		}
	}
	b.WriteString("\n% Use exact slug for detailed info: <slug>-MODRINTH\n")
	return b.String(), nil
}

type curseforgeMod struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Summary       string `json:"summary"`
	DownloadCount uint64 `json:"downloadCount"`
	DateCreated   string `json:"dateCreated"`
	DateModified  string `json:"dateModified"`
	DateReleased  string `json:"dateReleased"`
	Authors       []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"authors"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Links *struct {
		WebsiteURL string `json:"websiteUrl"`
		SourceURL  string `json:"sourceUrl"`
		IssuesURL  string `json:"issuesUrl"`
	} `json:"links"`
}

// handleCurseForge serves mod details by numeric ID, or a search listing
// otherwise. Both need a CurseForge API key.
func (d *Dispatcher) handleCurseForge(ctx context.Context, q query.Query) (string, error) {
	if d.deps.Keys.CurseForge == "" {
		return "", fmt.Errorf("curseforge lookups need CURSEFORGE_API_KEY: %w", errkind.ErrFeatureDisabled)
	}
	if id, err := strconv.ParseInt(q.Payload, 10, 64); err == nil {
		return d.curseforgeMod(ctx, id)
	}
	return d.curseforgeSearch(ctx, q.Payload)
}

func (d *Dispatcher) curseforgeMod(ctx context.Context, id int64) (string, error) {
	var resp struct {
		Data *curseforgeMod `json:"data"`
	}
	reqURL := fmt.Sprintf("%s%d", curseforgeModURL, id)
	if err := d.deps.HTTP.GetJSON(ctx, reqURL, &resp, fetch.WithHeader("x-api-key", d.deps.Keys.CurseForge)); err != nil {
		return "", err
	}
	if resp.Data == nil {
		return fmt.Sprintf("%% No CurseForge mod found with ID: %d\n", id), nil
	}
	mod := resp.Data

	var b strings.Builder
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	comment(&b, "CurseForge: %s", mod.Name)
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	b.WriteString("% \n")

	field(&b, "project-id", strconv.FormatInt(mod.ID, 10))
	field(&b, "project-name", mod.Name)
	field(&b, "project-slug", mod.Slug)
	field(&b, "summary", mod.Summary)
	if len(mod.Authors) > 0 {
		b.WriteString("% \n% --- Authors ---\n")
		for _, author := range mod.Authors {
			field(&b, "author", author.Name)
		}
	}
	b.WriteString("% \n% --- Statistics ---\n")
	field(&b, "downloads", strconv.FormatUint(mod.DownloadCount, 10))
	if len(mod.Categories) > 0 {
		b.WriteString("% \n% --- Categories ---\n")
		names := make([]string, len(mod.Categories))
		for i, category := range mod.Categories {
			names[i] = category.Name
		}
		field(&b, "categories", strings.Join(names, ", "))
	}
	b.WriteString("% \n% --- Timeline ---\n")
	field(&b, "created", mod.DateCreated)
	field(&b, "modified", mod.DateModified)
	field(&b, "released", mod.DateReleased)
	if mod.Links != nil {
		if mod.Links.WebsiteURL != "" {
			field(&b, "website-url", mod.Links.WebsiteURL)
		}
		if mod.Links.SourceURL != "" {
			field(&b, "source-url", mod.Links.SourceURL)
		}
		if mod.Links.IssuesURL != "" {
			field(&b, "issues-url", mod.Links.IssuesURL)
		}
	}
	return b.String(), nil
}

func (d *Dispatcher) curseforgeSearch(ctx context.Context, term string) (string, error) {
	var resp struct {
		Data []curseforgeMod `json:"data"`
	}
	reqURL := fmt.Sprintf("%ssearch?gameId=432&searchFilter=%s&pageSize=5", curseforgeModURL, url.QueryEscape(term))
	if err := d.deps.HTTP.GetJSON(ctx, reqURL, &resp, fetch.WithHeader("x-api-key", d.deps.Keys.CurseForge)); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return fmt.Sprintf("%% No CurseForge mods found for: %s\n", term), nil
	}

	var b strings.Builder
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	comment(&b, "CurseForge Search Results: %s", term)
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	b.WriteString("% \n")
	for i, mod := range resp.Data {
		comment(&b, "--- Result %d ---", i+1)
		field(&b, "project-id", strconv.FormatInt(mod.ID, 10))
		field(&b, "project-name", mod.Name)
		field(&b, "project-slug", mod.Slug)
		field(&b, "summary", mod.Summary)
		if len(mod.Authors) > 0 {
			names := make([]string, len(mod.Authors))
			for j, author := range mod.Authors {
				names[j] = author.Name
			}
			field(&b, "authors", strings.Join(names, ", "))
		}
		field(&b, "downloads", strconv.FormatUint(mod.DownloadCount, 10))
		if len(mod.Categories) > 0 {
			names := make([]string, len(mod.Categories))
			for j, category := range mod.Categories {
				names[j] = category.Name
			}
			field(&b, "categories", strings.Join(names, ", "))
		}
		if mod.Links != nil && mod.Links.WebsiteURL != "" {
			field(&b, "website-url", mod.Links.WebsiteURL)
		}
		if i < len(resp.Data)-1 {
			b.WriteString("% \n")
		}
	}
	b.WriteString("% \n")
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	comment(&b, "Use project ID for detailed info: <project-id>-CURSEFORGE")
	b.WriteString("% " + strings.Repeat("=", 70) + "\n")
	return b.String(), nil
}
