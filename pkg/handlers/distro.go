package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/upstream/fetch"
)

const (
	debianSourcesURL   = "https://sources.debian.org/api/src/"
	ubuntuLaunchpadURL = "https://api.launchpad.net/1.0/ubuntu/+archive/primary"
	aoscPackagesURL    = "https://packages.aosc.io/packages/"
	opensusePackageURL = "https://software.opensuse.org/package/"
)

// distro package names follow Debian conventions; anything else is
// rejected before it reaches an upstream URL.
var packageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9+._-]{1,100}$`)

func validPackageName(name string) error {
	if !packageNamePattern.MatchString(name) {
		return fmt.Errorf("invalid package name %q: %w", name, errkind.ErrInvalidQuery)
	}
	return nil
}

// handleDebian lists a source package's versions from sources.debian.org.
func (d *Dispatcher) handleDebian(ctx context.Context, q query.Query) (string, error) {
	if err := validPackageName(q.Payload); err != nil {
		return "", err
	}

	var resp struct {
		Package  string `json:"package"`
		Versions []struct {
			Version  string   `json:"version"`
			Suites   []string `json:"suites"`
			Area     string   `json:"area"`
			Binaries []string `json:"binaries"`
		} `json:"versions"`
	}
	err := d.deps.HTTP.GetJSON(ctx, debianSourcesURL+url.PathEscape(q.Payload)+"/", &resp)
	if err != nil || len(resp.Versions) == 0 {
		return distroNotFound("Debian", q.Payload, "https://packages.debian.org/search?keywords="+url.QueryEscape(q.Payload)), nil
	}
	latest := resp.Versions[0]

	var b strings.Builder
	fmt.Fprintf(&b, "package: %s\n", resp.Package)
	fmt.Fprintf(&b, "version: %s\n", latest.Version)
	if len(latest.Suites) > 0 {
		fmt.Fprintf(&b, "suites: %s\n", strings.Join(latest.Suites, ", "))
	}
	if latest.Area != "" {
		fmt.Fprintf(&b, "area: %s\n", latest.Area)
	}
	if len(latest.Binaries) > 0 {
		fmt.Fprintf(&b, "binary-packages: %s\n", strings.Join(latest.Binaries, ", "))
	}
	b.WriteString("repository: Debian Source Repository\n")
	b.WriteString("package-format: deb\n")

	if len(resp.Versions) > 1 {
		b.WriteString("\n% Available Versions:\n")
		for _, v := range resp.Versions {
			comment(&b, "%s (%s)", v.Version, strings.Join(v.Suites, ", "))
		}
	}

	b.WriteString("\n% Installation Instructions:\n")
	comment(&b, "apt install %s", resp.Package)
	comment(&b, "apt-get install %s", resp.Package)
	b.WriteString("\n% Additional Information:\n")
	comment(&b, "Package Tracker: https://tracker.debian.org/pkg/%s", resp.Package)
	comment(&b, "Source Code: https://sources.debian.org/src/%s/", resp.Package)
	comment(&b, "Bug Reports: https://bugs.debian.org/%s", resp.Package)
	return b.String(), nil
}

// handleUbuntu reports published binaries from the Launchpad archive API.
func (d *Dispatcher) handleUbuntu(ctx context.Context, q query.Query) (string, error) {
	if err := validPackageName(q.Payload); err != nil {
		return "", err
	}

	var resp struct {
		Entries []struct {
			BinaryPackageName    string `json:"binary_package_name"`
			BinaryPackageVersion string `json:"binary_package_version"`
			ComponentName        string `json:"component_name"`
			SourcePackageName    string `json:"source_package_name"`
			SourcePackageVersion string `json:"source_package_version"`
			SectionName          string `json:"section_name"`
			PriorityName         string `json:"priority_name"`
			Status               string `json:"status"`
			DatePublished        string `json:"date_published"`
		} `json:"entries"`
	}
	reqURL := fmt.Sprintf("%s?ws.op=getPublishedBinaries&binary_name=%s&ws.size=5",
		ubuntuLaunchpadURL, url.QueryEscape(q.Payload))
	err := d.deps.HTTP.GetJSON(ctx, reqURL, &resp, fetch.WithBrowserUA())
	if err != nil || len(resp.Entries) == 0 {
		return distroNotFound("Ubuntu", q.Payload, "https://packages.ubuntu.com/search?keywords="+url.QueryEscape(q.Payload)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ubuntu Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	pkg := resp.Entries[0]
	fmt.Fprintf(&b, "package-name: %s\n", pkg.BinaryPackageName)
	if pkg.BinaryPackageVersion != "" {
		fmt.Fprintf(&b, "version: %s\n", pkg.BinaryPackageVersion)
	}
	if pkg.ComponentName != "" {
		fmt.Fprintf(&b, "component: %s\n", pkg.ComponentName)
	}
	if pkg.SourcePackageName != "" {
		fmt.Fprintf(&b, "source-package: %s\n", pkg.SourcePackageName)
	}
	if pkg.SourcePackageVersion != "" {
		fmt.Fprintf(&b, "source-version: %s\n", pkg.SourcePackageVersion)
	}
	if pkg.SectionName != "" {
		fmt.Fprintf(&b, "section: %s\n", pkg.SectionName)
	}
	if pkg.PriorityName != "" {
		fmt.Fprintf(&b, "priority: %s\n", pkg.PriorityName)
	}
	if pkg.Status != "" {
		fmt.Fprintf(&b, "status: %s\n", pkg.Status)
	}
	if pkg.DatePublished != "" {
		fmt.Fprintf(&b, "date-published: %s\n", pkg.DatePublished)
	}
	fmt.Fprintf(&b, "ubuntu-url: https://packages.ubuntu.com/search?keywords=%s\n", url.QueryEscape(q.Payload))
	b.WriteString("repository: Ubuntu\n")
	b.WriteString("source: Launchpad API\n\n")
	comment(&b, "Information retrieved from Ubuntu packages")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handleNixOS points at the nixpkgs search; the search index itself sits
// behind an authenticated Elasticsearch endpoint.
func (d *Dispatcher) handleNixOS(ctx context.Context, q query.Query) (string, error) {
	if err := validPackageName(q.Payload); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "NixOS Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "package-name: %s\n", q.Payload)
	b.WriteString("distribution: NixOS\n")
	b.WriteString("package-format: nix\n")
	fmt.Fprintf(&b, "search-url: https://search.nixos.org/packages?query=%s\n", url.QueryEscape(q.Payload))
	b.WriteByte('\n')
	comment(&b, "Installation Instructions:")
	comment(&b, "nix-env -iA nixpkgs.%s", q.Payload)
	comment(&b, "nix-shell -p %s", q.Payload)
	b.WriteByte('\n')
	comment(&b, "Live package data requires the NixOS search interface")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handleOpenSUSE probes the openSUSE software portal.
func (d *Dispatcher) handleOpenSUSE(ctx context.Context, q query.Query) (string, error) {
	if err := validPackageName(q.Payload); err != nil {
		return "", err
	}

	page, err := d.deps.HTTP.GetBytes(ctx, opensusePackageURL+url.PathEscape(q.Payload), fetch.WithBrowserUA())
	if err != nil || !strings.Contains(string(page), q.Payload) {
		return distroNotFound("openSUSE", q.Payload, "https://software.opensuse.org/search?q="+url.QueryEscape(q.Payload)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "openSUSE Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "package-name: %s\n", q.Payload)
	b.WriteString("distribution: openSUSE\n")
	b.WriteString("package-format: RPM\n")
	fmt.Fprintf(&b, "package-url: %s%s\n", opensusePackageURL, url.PathEscape(q.Payload))
	b.WriteByte('\n')
	comment(&b, "Installation Instructions:")
	comment(&b, "zypper install %s", q.Payload)
	b.WriteByte('\n')
	comment(&b, "Information retrieved from software.opensuse.org")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handleAOSC probes the AOSC OS package portal.
func (d *Dispatcher) handleAOSC(ctx context.Context, q query.Query) (string, error) {
	if err := validPackageName(q.Payload); err != nil {
		return "", err
	}

	var resp struct {
		PkgName     string `json:"pkg_name"`
		Description string `json:"description"`
		Version     string `json:"version"`
	}
	err := d.deps.HTTP.GetJSON(ctx, aoscPackagesURL+url.PathEscape(q.Payload)+"?type=json", &resp, fetch.WithBrowserUA())
	if err != nil || resp.PkgName == "" {
		return distroNotFound("AOSC OS", q.Payload, "https://packages.aosc.io/search?q="+url.QueryEscape(q.Payload)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "AOSC OS Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "package-name: %s\n", resp.PkgName)
	if resp.Version != "" {
		fmt.Fprintf(&b, "version: %s\n", resp.Version)
	}
	if resp.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", resp.Description)
	}
	b.WriteString("distribution: AOSC OS\n")
	b.WriteString("package-format: deb\n")
	fmt.Fprintf(&b, "package-url: %s%s\n", aoscPackagesURL, url.PathEscape(q.Payload))
	b.WriteByte('\n')
	comment(&b, "Installation Instructions:")
	comment(&b, "oma install %s", q.Payload)
	b.WriteByte('\n')
	comment(&b, "Information retrieved from packages.aosc.io")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

// handleEPEL renders repository guidance for a package in Extra Packages
// for Enterprise Linux.
func (d *Dispatcher) handleEPEL(ctx context.Context, q query.Query) (string, error) {
	if err := validPackageName(q.Payload); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EPEL Package Information: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "package-name: %s\n", q.Payload)
	b.WriteString("distribution: EPEL (Extra Packages for Enterprise Linux)\n")
	b.WriteString("package-format: RPM\n")
	b.WriteString("compatible-with: RHEL, CentOS, AlmaLinux, Rocky Linux\n")
	b.WriteByte('\n')
	comment(&b, "Installation Instructions:")
	comment(&b, "# First enable EPEL repository:")
	comment(&b, "dnf install epel-release")
	comment(&b, "# Then install the package:")
	comment(&b, "dnf install %s", q.Payload)
	b.WriteByte('\n')
	comment(&b, "Package Management Commands:")
	comment(&b, "dnf search %s --enablerepo=epel", q.Payload)
	comment(&b, "dnf info %s --enablerepo=epel", q.Payload)
	comment(&b, "dnf repolist epel")
	b.WriteByte('\n')
	comment(&b, "EPEL Repository Information:")
	comment(&b, "EPEL 10 (EL10): https://dl.fedoraproject.org/pub/epel/10/")
	comment(&b, "EPEL 9 (EL9): https://dl.fedoraproject.org/pub/epel/9/")
	comment(&b, "EPEL 8 (EL8): https://dl.fedoraproject.org/pub/epel/8/")
	comment(&b, "Mirror List: https://mirrors.fedoraproject.org/publiclist/EPEL/")
	b.WriteByte('\n')
	comment(&b, "Additional Resources:")
	comment(&b, "EPEL Documentation: https://docs.fedoraproject.org/en-US/epel/")
	comment(&b, "Package Database: https://packages.fedoraproject.org/")
	comment(&b, "Bug Reports: https://bugzilla.redhat.com/")
	b.WriteByte('\n')
	comment(&b, "Information retrieved from EPEL repositories")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}

func distroNotFound(distro, pkg, searchURL string) string {
	return fmt.Sprintf("%s Package Not Found: %s\n"+
		"No information available for this package.\n"+
		"You can search manually at: %s\n", distro, pkg, searchURL)
}
