package trace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// helperName is the external traceroute binary, downloaded once on first
// use into the cache directory.
const helperName = "nexttrace"

// downloadBase is the release download prefix for the helper.
const downloadBase = "https://github.com/nxtrace/NTrace-core/releases/latest/download"

// runTimeout bounds one traceroute run.
const runTimeout = 90 * time.Second

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// capabilityHint is appended when the helper falls back to UDP mode for
// lack of raw-socket capability.
const capabilityHint = "\n% Raw-socket (ICMP) mode unavailable; results above used UDP mode.\n" +
	"% To enable ICMP traceroute, grant the helper the capability:\n" +
	"%   sudo setcap cap_net_raw+ep <cache-dir>/" + helperName + "\n"

// Runner downloads and invokes the external traceroute helper. The helper
// path is initialized once under a one-shot latch.
type Runner struct {
	cacheDir string

	once sync.Once
	path string
	err  error
}

// NewRunner creates a runner caching the helper under cacheDir.
func NewRunner(cacheDir string) *Runner {
	return &Runner{cacheDir: cacheDir}
}

// Run traces the route to target and returns the helper's output with ANSI
// escape sequences stripped. On Unix hosts without raw-socket capability
// the run is retried in UDP mode and the output annotated with guidance.
func (r *Runner) Run(ctx context.Context, target string) (string, error) {
	r.once.Do(func() {
		r.path, r.err = r.ensureHelper(ctx)
	})
	if r.err != nil {
		return "", fmt.Errorf("traceroute helper unavailable: %v: %w", r.err, errkind.ErrUpstreamUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	out, err := r.invoke(ctx, target, false)
	if err != nil && runtime.GOOS != "windows" && needsCapability(out, err) {
		log.WithComponent("trace").Debug().Msg("raw socket unavailable, retrying in UDP mode")
		out, err = r.invoke(ctx, target, true)
		if err == nil {
			return StripANSI(out) + capabilityHint, nil
		}
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("traceroute to %s: %w", target, errkind.ErrTimeout)
		}
		return "", fmt.Errorf("traceroute to %s failed: %v: %w", target, err, errkind.ErrUpstreamUnavailable)
	}
	return StripANSI(out), nil
}

func (r *Runner) invoke(ctx context.Context, target string, udpMode bool) (string, error) {
	args := []string{"--map", "false", "--nocolor", target}
	if udpMode {
		args = append([]string{"--udp"}, args...)
	}
	cmd := exec.CommandContext(ctx, r.path, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// needsCapability recognizes the permission failure of an unprivileged
// ICMP attempt.
func needsCapability(out string, err error) bool {
	combined := strings.ToLower(out + " " + err.Error())
	return strings.Contains(combined, "operation not permitted") ||
		strings.Contains(combined, "permission denied") ||
		strings.Contains(combined, "socket: ")
}

// ensureHelper returns the helper path, downloading the platform binary on
// first use.
func (r *Runner) ensureHelper(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(r.cacheDir, helperName)
	if runtime.GOOS == "windows" {
		path += ".exe"
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	url := fmt.Sprintf("%s/%s", downloadBase, releaseAsset())
	log.WithComponent("trace").Info().Str("url", url).Msg("downloading traceroute helper")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := (&http.Client{Timeout: 5 * time.Minute}).Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading helper: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading helper: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(r.cacheDir, helperName+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing helper: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// releaseAsset maps GOOS/GOARCH to the published asset name.
func releaseAsset() string {
	asset := fmt.Sprintf("%s_%s_%s", helperName, runtime.GOOS, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		asset += ".exe"
	}
	return asset
}

// StripANSI removes ANSI escape sequences from helper output.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
