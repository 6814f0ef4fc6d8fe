package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/query"
)

const (
	cratesIOAPIURL = "https://crates.io/api/v1/crates/"
	npmRegistryURL = "https://registry.npmjs.org/"
	pypiAPIURL     = "https://pypi.org/pypi/"
	aurRPCURL      = "https://aur.archlinux.org/rpc/v5/info?arg[]="
)

// handleCargo renders crate metadata from the crates.io API.
func (d *Dispatcher) handleCargo(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Crate *struct {
			Name            string `json:"name"`
			NewestVersion   string `json:"newest_version"`
			MaxStableVer    string `json:"max_stable_version"`
			Description     string `json:"description"`
			Homepage        string `json:"homepage"`
			Repository      string `json:"repository"`
			Documentation   string `json:"documentation"`
			Downloads       int64  `json:"downloads"`
			RecentDownloads int64  `json:"recent_downloads"`
			CreatedAt       string `json:"created_at"`
			UpdatedAt       string `json:"updated_at"`
		} `json:"crate"`
		Versions []struct {
			Num     string `json:"num"`
			Yanked  bool   `json:"yanked"`
			License string `json:"license"`
		} `json:"versions"`
		Categories []struct {
			Category string `json:"category"`
		} `json:"categories"`
		Keywords []struct {
			Keyword string `json:"keyword"`
		} `json:"keywords"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, cratesIOAPIURL+url.PathEscape(q.Payload), &resp); err != nil {
		return "", err
	}
	if resp.Crate == nil {
		return fmt.Sprintf("Rust Crate Not Found: %s\nNo matching crate on crates.io.\n", q.Payload), nil
	}
	c := resp.Crate

	var b strings.Builder
	fmt.Fprintf(&b, "Rust Crate Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "crate-name: %s\n", c.Name)
	fmt.Fprintf(&b, "version: %s\n", c.NewestVersion)
	if c.MaxStableVer != "" && c.MaxStableVer != c.NewestVersion {
		fmt.Fprintf(&b, "stable-version: %s\n", c.MaxStableVer)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", c.Description)
	}
	if len(resp.Versions) > 0 && resp.Versions[0].License != "" {
		fmt.Fprintf(&b, "license: %s\n", resp.Versions[0].License)
	}
	if c.Homepage != "" {
		fmt.Fprintf(&b, "homepage: %s\n", c.Homepage)
	}
	if c.Repository != "" {
		fmt.Fprintf(&b, "repository: %s\n", c.Repository)
	}
	if c.Documentation != "" {
		fmt.Fprintf(&b, "documentation: %s\n", c.Documentation)
	}
	fmt.Fprintf(&b, "total-downloads: %d\n", c.Downloads)
	if c.RecentDownloads > 0 {
		fmt.Fprintf(&b, "recent-downloads: %d\n", c.RecentDownloads)
	}
	if len(resp.Categories) > 0 {
		names := make([]string, len(resp.Categories))
		for i, cat := range resp.Categories {
			names[i] = cat.Category
		}
		fmt.Fprintf(&b, "categories: %s\n", strings.Join(names, ", "))
	}
	if len(resp.Keywords) > 0 {
		names := make([]string, len(resp.Keywords))
		for i, kw := range resp.Keywords {
			names[i] = kw.Keyword
		}
		fmt.Fprintf(&b, "keywords: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "total-versions: %d\n", len(resp.Versions))
	if n := len(resp.Versions); n > 0 {
		recent := make([]string, 0, 5)
		for _, v := range resp.Versions[:min(n, 5)] {
			if v.Yanked {
				recent = append(recent, v.Num+" (yanked)")
			} else {
				recent = append(recent, v.Num)
			}
		}
		fmt.Fprintf(&b, "recent-versions: %s\n", strings.Join(recent, ", "))
	}
	fmt.Fprintf(&b, "created: %s\n", rfc3339Display(c.CreatedAt))
	fmt.Fprintf(&b, "updated: %s\n", rfc3339Display(c.UpdatedAt))
	fmt.Fprintf(&b, "crates-io-url: https://crates.io/crates/%s\n", url.PathEscape(c.Name))
	fmt.Fprintf(&b, "docs-rs-url: https://docs.rs/%s\n", url.PathEscape(c.Name))
	b.WriteString("registry: crates.io (Rust Package Registry)\n")
	b.WriteString("source: crates.io API\n\n")
	comment(&b, "Information retrieved from crates.io")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handleNPM renders npm package metadata from the public registry.
func (d *Dispatcher) handleNPM(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		License     string `json:"license"`
		Homepage    string `json:"homepage"`
		Keywords    []string
		DistTags    map[string]string `json:"dist-tags"`
		Author      *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
		Repository *struct {
			URL string `json:"url"`
		} `json:"repository"`
		Maintainers []struct {
			Name string `json:"name"`
		} `json:"maintainers"`
		Versions map[string]struct {
			Dependencies map[string]string `json:"dependencies"`
		} `json:"versions"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, npmRegistryURL+url.PathEscape(q.Payload), &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return fmt.Sprintf("NPM Package Not Found: %s\n"+
			"You can search manually at: https://www.npmjs.com/search?q=%s\n",
			q.Payload, url.QueryEscape(q.Payload)), nil
	}

	latest := resp.DistTags["latest"]

	var b strings.Builder
	fmt.Fprintf(&b, "NPM Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "package-name: %s\n", resp.Name)
	if latest != "" {
		fmt.Fprintf(&b, "version: %s\n", latest)
	}
	if resp.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", resp.Description)
	}
	if resp.Author != nil && resp.Author.Name != "" {
		if resp.Author.Email != "" {
			fmt.Fprintf(&b, "author: %s <%s>\n", resp.Author.Name, resp.Author.Email)
		} else {
			fmt.Fprintf(&b, "author: %s\n", resp.Author.Name)
		}
	}
	if resp.License != "" {
		fmt.Fprintf(&b, "license: %s\n", resp.License)
	}
	if resp.Homepage != "" {
		fmt.Fprintf(&b, "homepage: %s\n", resp.Homepage)
	}
	if resp.Repository != nil && resp.Repository.URL != "" {
		fmt.Fprintf(&b, "repository: %s\n", resp.Repository.URL)
	}
	if len(resp.Keywords) > 0 {
		fmt.Fprintf(&b, "keywords: %s\n", strings.Join(resp.Keywords, ", "))
	}
	if latest != "" {
		if version, ok := resp.Versions[latest]; ok && len(version.Dependencies) > 0 {
			deps := make([]string, 0, len(version.Dependencies))
			for name := range version.Dependencies {
				deps = append(deps, name)
			}
			if len(deps) > 15 {
				fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(deps[:15], ", "))
				fmt.Fprintf(&b, "dependencies-count: %d total\n", len(deps))
			} else {
				fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(deps, ", "))
			}
		}
	}
	if len(resp.Maintainers) > 0 {
		names := make([]string, len(resp.Maintainers))
		for i, m := range resp.Maintainers {
			names[i] = m.Name
		}
		fmt.Fprintf(&b, "maintainers: %s\n", strings.Join(names, ", "))
	}
	if beta := resp.DistTags["beta"]; beta != "" {
		fmt.Fprintf(&b, "beta-version: %s\n", beta)
	}
	fmt.Fprintf(&b, "npm-url: https://www.npmjs.com/package/%s\n", url.PathEscape(resp.Name))
	fmt.Fprintf(&b, "api-url: %s%s\n", npmRegistryURL, url.PathEscape(resp.Name))
	b.WriteString("repository: NPM Registry\n")
	b.WriteString("source: NPM Registry API\n\n")
	comment(&b, "Information retrieved from NPM registry")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handlePyPI renders Python package metadata from the PyPI JSON API.
func (d *Dispatcher) handlePyPI(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		Info *struct {
			Name            string            `json:"name"`
			Version         string            `json:"version"`
			Summary         string            `json:"summary"`
			Author          string            `json:"author"`
			AuthorEmail     string            `json:"author_email"`
			Maintainer      string            `json:"maintainer"`
			MaintainerEmail string            `json:"maintainer_email"`
			License         string            `json:"license"`
			HomePage        string            `json:"home_page"`
			RequiresPython  string            `json:"requires_python"`
			Keywords        string            `json:"keywords"`
			RequiresDist    []string          `json:"requires_dist"`
			Classifiers     []string          `json:"classifiers"`
			ProjectURLs     map[string]string `json:"project_urls"`
		} `json:"info"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, pypiAPIURL+url.PathEscape(q.Payload)+"/json", &resp); err != nil {
		return "", err
	}
	if resp.Info == nil {
		return fmt.Sprintf("PyPI Package Not Found: %s\n"+
			"You can search manually at: https://pypi.org/search/?q=%s\n",
			q.Payload, url.QueryEscape(q.Payload)), nil
	}
	info := resp.Info

	var b strings.Builder
	fmt.Fprintf(&b, "PyPI Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "package-name: %s\n", info.Name)
	fmt.Fprintf(&b, "version: %s\n", info.Version)
	if info.Summary != "" {
		fmt.Fprintf(&b, "summary: %s\n", info.Summary)
	}
	writeContact(&b, "author", info.Author, info.AuthorEmail)
	writeContact(&b, "maintainer", info.Maintainer, info.MaintainerEmail)
	if info.License != "" {
		fmt.Fprintf(&b, "license: %s\n", info.License)
	}
	if info.HomePage != "" {
		fmt.Fprintf(&b, "homepage: %s\n", info.HomePage)
	}
	for name, link := range info.ProjectURLs {
		if strings.EqualFold(name, "repository") || strings.EqualFold(name, "source") {
			fmt.Fprintf(&b, "repository: %s\n", link)
		}
	}
	if info.RequiresPython != "" {
		fmt.Fprintf(&b, "requires-python: %s\n", info.RequiresPython)
	}
	if info.Keywords != "" {
		fmt.Fprintf(&b, "keywords: %s\n", info.Keywords)
	}
	if len(info.RequiresDist) > 0 {
		deps := info.RequiresDist
		if len(deps) > 15 {
			fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(deps[:15], ", "))
			fmt.Fprintf(&b, "dependencies-count: %d total\n", len(deps))
		} else {
			fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(deps, ", "))
		}
	}
	var langs []string
	for _, classifier := range info.Classifiers {
		if rest, ok := strings.CutPrefix(classifier, "Programming Language :: Python :: "); ok {
			langs = append(langs, rest)
		}
		if rest, ok := strings.CutPrefix(classifier, "Development Status :: "); ok {
			fmt.Fprintf(&b, "development-status: %s\n", rest)
		}
	}
	if len(langs) > 0 {
		fmt.Fprintf(&b, "programming-languages: %s\n", strings.Join(langs, ", "))
	}
	fmt.Fprintf(&b, "pypi-url: https://pypi.org/project/%s/\n", url.PathEscape(info.Name))
	fmt.Fprintf(&b, "api-url: %s%s/json\n", pypiAPIURL, url.PathEscape(info.Name))
	b.WriteString("repository: Python Package Index (PyPI)\n")
	b.WriteString("source: PyPI API\n\n")
	comment(&b, "Information retrieved from PyPI")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handleAUR renders AUR package metadata from the RPC v5 API.
func (d *Dispatcher) handleAUR(ctx context.Context, q query.Query) (string, error) {
	var resp struct {
		ResultCount int `json:"resultcount"`
		Results     []struct {
			Name           string   `json:"Name"`
			PackageBase    string   `json:"PackageBase"`
			Version        string   `json:"Version"`
			Description    string   `json:"Description"`
			URL            string   `json:"URL"`
			ID             int64    `json:"ID"`
			NumVotes       int      `json:"NumVotes"`
			Popularity     float64  `json:"Popularity"`
			Maintainer     string   `json:"Maintainer"`
			FirstSubmitted int64    `json:"FirstSubmitted"`
			LastModified   int64    `json:"LastModified"`
			OutOfDate      int64    `json:"OutOfDate"`
			Depends        []string `json:"Depends"`
			MakeDepends    []string `json:"MakeDepends"`
			OptDepends     []string `json:"OptDepends"`
			Conflicts      []string `json:"Conflicts"`
			Provides       []string `json:"Provides"`
			License        []string `json:"License"`
			Keywords       []string `json:"Keywords"`
		} `json:"results"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, aurRPCURL+url.QueryEscape(q.Payload), &resp); err != nil {
		return "", err
	}
	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return fmt.Sprintf("AUR Package Not Found: %s\n"+
			"%% Try searching on: https://aur.archlinux.org/packages/?K=%s\n"+
			"%% AUR URL: https://aur.archlinux.org/\n",
			q.Payload, url.QueryEscape(q.Payload)), nil
	}
	pkg := resp.Results[0]

	var b strings.Builder
	fmt.Fprintf(&b, "package: %s\n", pkg.Name)
	fmt.Fprintf(&b, "package-base: %s\n", pkg.PackageBase)
	fmt.Fprintf(&b, "version: %s\n", pkg.Version)
	if pkg.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", pkg.Description)
	}
	if pkg.URL != "" {
		fmt.Fprintf(&b, "upstream-url: %s\n", pkg.URL)
	}
	fmt.Fprintf(&b, "aur-url: https://aur.archlinux.org/packages/%s\n", pkg.Name)
	fmt.Fprintf(&b, "aur-id: %d\n", pkg.ID)
	fmt.Fprintf(&b, "votes: %d\n", pkg.NumVotes)
	fmt.Fprintf(&b, "popularity: %.6f\n", pkg.Popularity)
	if pkg.Maintainer != "" {
		fmt.Fprintf(&b, "maintainer: %s\n", pkg.Maintainer)
	} else {
		b.WriteString("maintainer: orphaned\n")
	}
	fmt.Fprintf(&b, "first-submitted: %s\n", utcStamp(time.Unix(pkg.FirstSubmitted, 0)))
	fmt.Fprintf(&b, "last-modified: %s\n", utcStamp(time.Unix(pkg.LastModified, 0)))
	if pkg.OutOfDate > 0 {
		fmt.Fprintf(&b, "out-of-date: %s\n", utcStamp(time.Unix(pkg.OutOfDate, 0)))
	} else {
		b.WriteString("out-of-date: no\n")
	}
	writeList(&b, "depends", pkg.Depends)
	writeList(&b, "makedepends", pkg.MakeDepends)
	writeList(&b, "optdepends", pkg.OptDepends)
	writeList(&b, "conflicts", pkg.Conflicts)
	writeList(&b, "provides", pkg.Provides)
	writeList(&b, "license", pkg.License)
	writeList(&b, "keywords", pkg.Keywords)
	b.WriteByte('\n')
	comment(&b, "Additional Information:")
	comment(&b, "AUR Git Clone: https://aur.archlinux.org/%s.git", pkg.PackageBase)
	comment(&b, "Source: Arch User Repository (AUR)")
	return b.String(), nil
}

func writeContact(b *strings.Builder, key, name, email string) {
	switch {
	case name != "" && email != "":
		fmt.Fprintf(b, "%s: %s <%s>\n", key, name, email)
	case name != "":
		fmt.Fprintf(b, "%s: %s\n", key, name)
	case email != "":
		fmt.Fprintf(b, "%s: %s\n", key, email)
	}
}

func writeList(b *strings.Builder, key string, values []string) {
	if len(values) > 0 {
		fmt.Fprintf(b, "%s: %s\n", key, strings.Join(values, ", "))
	}
}

func rfc3339Display(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return utcStamp(t)
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
