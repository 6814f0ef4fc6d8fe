package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

const githubAPIURL = "https://api.github.com"

// handleGitHub serves user profiles ("name-GITHUB") and repositories
// ("owner/repo-GITHUB").
func (d *Dispatcher) handleGitHub(ctx context.Context, q query.Query) (string, error) {
	if owner, repo, ok := strings.Cut(q.Payload, "/"); ok {
		if owner == "" || repo == "" {
			return "", fmt.Errorf("github repository query needs owner/repo: %w", errkind.ErrInvalidQuery)
		}
		return d.githubRepo(ctx, owner, repo)
	}
	return d.githubUser(ctx, q.Payload)
}

func (d *Dispatcher) githubUser(ctx context.Context, username string) (string, error) {
	var user struct {
		Login       string `json:"login"`
		ID          int64  `json:"id"`
		Type        string `json:"type"`
		Name        string `json:"name"`
		Bio         string `json:"bio"`
		Company     string `json:"company"`
		Location    string `json:"location"`
		Email       string `json:"email"`
		Blog        string `json:"blog"`
		Twitter     string `json:"twitter_username"`
		PublicRepos int    `json:"public_repos"`
		PublicGists int    `json:"public_gists"`
		Followers   int    `json:"followers"`
		Following   int    `json:"following"`
		SiteAdmin   bool   `json:"site_admin"`
		Hireable    *bool  `json:"hireable"`
		CreatedAt   string `json:"created_at"`
		UpdatedAt   string `json:"updated_at"`
		HTMLURL     string `json:"html_url"`
		AvatarURL   string `json:"avatar_url"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, githubAPIURL+"/users/"+url.PathEscape(username), &user); err != nil {
		return "", err
	}
	if user.Login == "" {
		return fmt.Sprintf("GitHub User Not Found: %s\n", username), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GitHub User Information: %s\n", username)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "username: %s\n", user.Login)
	fmt.Fprintf(&b, "user-id: %d\n", user.ID)
	fmt.Fprintf(&b, "user-type: %s\n", user.Type)
	if user.Name != "" {
		fmt.Fprintf(&b, "display-name: %s\n", user.Name)
	}
	if user.Bio != "" {
		fmt.Fprintf(&b, "bio: %s\n", user.Bio)
	}
	if user.Company != "" {
		fmt.Fprintf(&b, "company: %s\n", user.Company)
	}
	if user.Location != "" {
		fmt.Fprintf(&b, "location: %s\n", user.Location)
	}
	if user.Email != "" {
		fmt.Fprintf(&b, "email: %s\n", user.Email)
	}
	if user.Blog != "" {
		fmt.Fprintf(&b, "website: %s\n", user.Blog)
	}
	if user.Twitter != "" {
		fmt.Fprintf(&b, "twitter: @%s\n", user.Twitter)
	}
	fmt.Fprintf(&b, "public-repos: %d\n", user.PublicRepos)
	fmt.Fprintf(&b, "public-gists: %d\n", user.PublicGists)
	fmt.Fprintf(&b, "followers: %d\n", user.Followers)
	fmt.Fprintf(&b, "following: %d\n", user.Following)
	if user.SiteAdmin {
		b.WriteString("site-admin: true\n")
	}
	if user.Hireable != nil {
		fmt.Fprintf(&b, "hireable: %t\n", *user.Hireable)
	}
	fmt.Fprintf(&b, "created-at: %s\n", user.CreatedAt)
	fmt.Fprintf(&b, "updated-at: %s\n", user.UpdatedAt)
	fmt.Fprintf(&b, "github-url: %s\n", user.HTMLURL)
	fmt.Fprintf(&b, "avatar-url: %s\n", user.AvatarURL)
	fmt.Fprintf(&b, "api-url: %s/users/%s\n", githubAPIURL, user.Login)
	b.WriteString("source: GitHub API\n\n")
	comment(&b, "Information retrieved from GitHub")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

func (d *Dispatcher) githubRepo(ctx context.Context, owner, repo string) (string, error) {
	var r struct {
		Name        string `json:"name"`
		FullName    string `json:"full_name"`
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Owner       struct {
			Login string `json:"login"`
			Type  string `json:"type"`
		} `json:"owner"`
		Language string `json:"language"`
		Homepage string `json:"homepage"`
		License  *struct {
			Name   string `json:"name"`
			SPDXID string `json:"spdx_id"`
		} `json:"license"`
		DefaultBranch   string   `json:"default_branch"`
		StargazersCount int      `json:"stargazers_count"`
		WatchersCount   int      `json:"watchers_count"`
		ForksCount      int      `json:"forks_count"`
		OpenIssuesCount int      `json:"open_issues_count"`
		Size            int64    `json:"size"`
		Private         bool     `json:"private"`
		Fork            bool     `json:"fork"`
		Archived        bool     `json:"archived"`
		Disabled        bool     `json:"disabled"`
		HasIssues       bool     `json:"has_issues"`
		HasProjects     bool     `json:"has_projects"`
		HasWiki         bool     `json:"has_wiki"`
		HasPages        bool     `json:"has_pages"`
		HasDownloads    bool     `json:"has_downloads"`
		Topics          []string `json:"topics"`
		CreatedAt       string   `json:"created_at"`
		UpdatedAt       string   `json:"updated_at"`
		PushedAt        string   `json:"pushed_at"`
		HTMLURL         string   `json:"html_url"`
		CloneURL        string   `json:"clone_url"`
	}
	reqURL := fmt.Sprintf("%s/repos/%s/%s", githubAPIURL, url.PathEscape(owner), url.PathEscape(repo))
	if err := d.deps.HTTP.GetJSON(ctx, reqURL, &r); err != nil {
		return "", err
	}
	if r.FullName == "" {
		return fmt.Sprintf("GitHub Repository Not Found: %s/%s\n", owner, repo), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GitHub Repository Information: %s/%s\n", owner, repo)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "repository-name: %s\n", r.Name)
	fmt.Fprintf(&b, "full-name: %s\n", r.FullName)
	fmt.Fprintf(&b, "repository-id: %d\n", r.ID)
	if r.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", r.Description)
	}
	fmt.Fprintf(&b, "owner: %s\n", r.Owner.Login)
	fmt.Fprintf(&b, "owner-type: %s\n", r.Owner.Type)
	if r.Language != "" {
		fmt.Fprintf(&b, "language: %s\n", r.Language)
	}
	if r.Homepage != "" {
		fmt.Fprintf(&b, "homepage: %s\n", r.Homepage)
	}
	if r.License != nil {
		fmt.Fprintf(&b, "license: %s\n", r.License.Name)
		if r.License.SPDXID != "" {
			fmt.Fprintf(&b, "license-spdx: %s\n", r.License.SPDXID)
		}
	}
	fmt.Fprintf(&b, "default-branch: %s\n", r.DefaultBranch)
	fmt.Fprintf(&b, "stars: %d\n", r.StargazersCount)
	fmt.Fprintf(&b, "watchers: %d\n", r.WatchersCount)
	fmt.Fprintf(&b, "forks: %d\n", r.ForksCount)
	fmt.Fprintf(&b, "open-issues: %d\n", r.OpenIssuesCount)
	fmt.Fprintf(&b, "size: %.2f MB\n", float64(r.Size)/1024)
	if r.Private {
		b.WriteString("visibility: private\n")
	} else {
		b.WriteString("visibility: public\n")
	}
	if r.Fork {
		b.WriteString("fork: true\n")
	}
	if r.Archived {
		b.WriteString("archived: true\n")
	}
	if r.Disabled {
		b.WriteString("disabled: true\n")
	}
	var features []string
	if r.HasIssues {
		features = append(features, "issues")
	}
	if r.HasProjects {
		features = append(features, "projects")
	}
	if r.HasWiki {
		features = append(features, "wiki")
	}
	if r.HasPages {
		features = append(features, "pages")
	}
	if r.HasDownloads {
		features = append(features, "downloads")
	}
	if len(features) > 0 {
		fmt.Fprintf(&b, "features: %s\n", strings.Join(features, ", "))
	}
	if len(r.Topics) > 0 {
		fmt.Fprintf(&b, "topics: %s\n", strings.Join(r.Topics, ", "))
	}
	fmt.Fprintf(&b, "created-at: %s\n", r.CreatedAt)
	fmt.Fprintf(&b, "updated-at: %s\n", r.UpdatedAt)
	fmt.Fprintf(&b, "pushed-at: %s\n", r.PushedAt)
	fmt.Fprintf(&b, "github-url: %s\n", r.HTMLURL)
	fmt.Fprintf(&b, "clone-url: %s\n", r.CloneURL)
	b.WriteString("source: GitHub API\n\n")
	comment(&b, "Information retrieved from GitHub")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}
