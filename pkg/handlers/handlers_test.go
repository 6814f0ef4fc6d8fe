package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/enrich"
	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/pen"
	"github.com/akaere/whoisd/pkg/query"
	"github.com/akaere/whoisd/pkg/storage"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	registry, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	penStore, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = penStore.Close() })

	return New(&Deps{
		Registry: registry,
		PenStore: penStore,
	})
}

func TestLookupCoversEveryTag(t *testing.T) {
	d := testDispatcher(t)
	for _, tag := range query.AllTags {
		_, ok := d.Lookup(tag)
		assert.True(t, ok, "tag %s has no handler", tag)
	}
}

func TestLookupFallsBackForUntagged(t *testing.T) {
	d := testDispatcher(t)

	h, ok := d.Lookup("")
	assert.False(t, ok)
	require.NotNil(t, h)

	h, ok = d.Lookup("NO-SUCH-TAG")
	assert.False(t, ok)
	require.NotNil(t, h)
}

func TestDispatchEmptyQuery(t *testing.T) {
	d := testDispatcher(t)
	body := d.Dispatch(context.Background(), query.Query{})
	assert.Equal(t, "% Error: invalid query\n", body)
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := testDispatcher(t)
	d.byTag["HELP"] = func(ctx context.Context, q query.Query) (string, error) {
		panic("boom")
	}

	body := d.Dispatch(context.Background(), query.Classify("HELP"))
	assert.Equal(t, "% Error: internal server error\n", body)
}

func TestDispatchLocalRegistryASN(t *testing.T) {
	d := testDispatcher(t)

	object := "aut-num:            AS4242420000\nas-name:            EXAMPLE-AS\nmnt-by:             EXAMPLE-MNT\nsource:             REGISTRY\n"
	require.NoError(t, d.deps.Registry.Put("aut-num/AS4242420000", []byte(object)))

	body := d.Dispatch(context.Background(), query.Classify("AS4242420000"))
	assert.Contains(t, body, "% Query: AS4242420000")
	assert.Contains(t, body, "as-name:            EXAMPLE-AS")
	assert.NotContains(t, body, "404")
}

func TestRegistryASNExpansion(t *testing.T) {
	asn, ok := registryASN("0")
	require.True(t, ok)
	assert.Equal(t, "AS4242420000", asn)

	asn, ok = registryASN("AS123")
	require.True(t, ok)
	assert.Equal(t, "AS4242420123", asn)

	asn, ok = registryASN("65550")
	require.True(t, ok)
	assert.Equal(t, "AS65550", asn)

	_, ok = registryASN("not-a-number")
	assert.False(t, ok)
}

func TestDispatchRegistryNotFound(t *testing.T) {
	d := testDispatcher(t)
	body := d.Dispatch(context.Background(), query.Classify("EXAMPLE-MNT"))
	assert.Contains(t, body, "% 404 Not Found")
}

func TestRenderErrorTaxonomy(t *testing.T) {
	q := query.Classify("example.com")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"invalid", errkind.ErrInvalidQuery, "% Error: invalid query\n"},
		{"timeout", fmt.Errorf("dial: %w", errkind.ErrTimeout), "% Error: the upstream query timed out\n"},
		{"malformed", errkind.ErrUpstreamMalformed, "% Error: the upstream returned a malformed response\n"},
		{"internal", errkind.ErrInternal, "% Error: internal server error\n"},
		{"unknown", errors.New("surprise"), "% Error: internal server error\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, renderError(q, tc.err))
		})
	}

	t.Run("unavailable carries detail", func(t *testing.T) {
		err := fmt.Errorf("RIPE stat returned 503: %w", errkind.ErrUpstreamUnavailable)
		got := renderError(q, err)
		assert.True(t, strings.HasPrefix(got, "% Error: upstream unavailable: "))
		assert.Contains(t, got, "RIPE stat returned 503")
	})

	t.Run("disabled carries remediation", func(t *testing.T) {
		err := fmt.Errorf("Steam user queries require STEAM_API_KEY: %w", errkind.ErrFeatureDisabled)
		got := renderError(q, err)
		assert.Contains(t, got, "requires an API key")
		assert.Contains(t, got, "STEAM_API_KEY")
	})
}

func TestHandleHelp(t *testing.T) {
	d := testDispatcher(t)
	body := d.Dispatch(context.Background(), query.Classify("HELP"))

	assert.Contains(t, body, "WHOIS Server - Query Help")
	assert.Contains(t, body, "X-WHOIS-COLOR-PROBE: 1")
	assert.Contains(t, body, "-MEAL-CN")
	for _, tag := range []string{"-GEO", "-SSL", "-CRT", "-CARGO", "-PYPI", "-NPM", "-GITHUB", "-PEN", "-PIXIV"} {
		assert.Contains(t, body, tag)
	}
}

func TestHandleMealCN(t *testing.T) {
	d := testDispatcher(t)
	d.deps.Recipes = []byte(`[
		{"name": "西红柿炒鸡蛋", "category": "家常菜", "difficulty": "1",
		 "ingredients": ["鸡蛋 3个", "西红柿 2个"],
		 "instructions": ["鸡蛋打散", "西红柿切块", "同炒"],
		 "source": "https://github.com/Anduin2017/HowToCook"}
	]`)

	body := d.Dispatch(context.Background(), query.Classify("今天吃什么中国-MEAL-CN"))
	assert.Contains(t, body, "meal-name:         西红柿炒鸡蛋")
	assert.Contains(t, body, "cuisine:           Chinese")
	assert.Contains(t, body, "instruction-3:     同炒")
	assert.Contains(t, body, "% Recipes adapted from the HowToCook project")
}

func TestHandleMealCNNoRecipes(t *testing.T) {
	d := testDispatcher(t)
	d.deps.Recipes = []byte(`[]`)

	body := d.Dispatch(context.Background(), query.Classify("x-MEAL-CN"))
	assert.Equal(t, "% Error: internal server error\n", body)
}

func TestHandlePENLookup(t *testing.T) {
	d := testDispatcher(t)
	entry := `{"number":32473,"oid":"1.3.6.1.4.1.32473","organization":"Example Enterprise","contact":"Jane Doe","email":"jane@example.com","cached_at":` +
		fmt.Sprint(time.Now().Unix()) + `}`
	require.NoError(t, d.deps.PenStore.Put(pen.EntryKey(32473), []byte(entry)))

	body := d.Dispatch(context.Background(), query.Classify("32473-PEN"))
	assert.Contains(t, body, "Enterprise-Number: 32473")
	assert.Contains(t, body, "OID: 1.3.6.1.4.1.32473")
	assert.Contains(t, body, "Organization: Example Enterprise")

	body = d.Dispatch(context.Background(), query.Classify("Example-PEN"))
	assert.Contains(t, body, "Enterprise-Number: 32473")

	body = d.Dispatch(context.Background(), query.Classify("99999999-PEN"))
	assert.Contains(t, body, "not found")
}

func TestFeatureDisabledWithoutKeys(t *testing.T) {
	d := testDispatcher(t)

	for _, raw := range []string{"76561197960435530-STEAM", "Inception-IMDB", "jei-CURSEFORGE", "92803-PIXIV"} {
		body := d.Dispatch(context.Background(), query.Classify(raw))
		assert.Contains(t, body, "requires an API key", "query %s", raw)
	}
}

func TestFieldPadding(t *testing.T) {
	var b strings.Builder
	field(&b, "aut-num", "AS4242420000")
	assert.Equal(t, "aut-num:            AS4242420000\n", b.String())

	b.Reset()
	field(&b, "a-very-long-key-name", "v")
	assert.Equal(t, "a-very-long-key-name: v\n", b.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-10", truncate("exactly-10", 10))
	assert.Equal(t, "0123456...", truncate("0123456789A", 10))
}

func TestUTCStamps(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "2026-03-14 09:26:53 UTC", utcStamp(ts))
	assert.Equal(t, fmt.Sprintf("2026-03-14 09:26:53 UTC (%d)", ts.Unix()), utcStampUnix(ts))
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 9)
	assert.Equal(t, []string{"one two", "three", "four five"}, lines)
	assert.Empty(t, wrapText("   ", 10))
}

func TestSplitHostPort(t *testing.T) {
	host, port := splitHostPort("example.com", 443)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, 443, port)

	host, port = splitHostPort("example.com:8443", 443)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, 8443, port)

	host, port = splitHostPort("2001:db8::1", 443)
	assert.Equal(t, "2001:db8::1", host)
	assert.Equal(t, 443, port)
}

func TestPrefixRowsFromResults(t *testing.T) {
	rows, failed := prefixRowsFrom([]enrich.Result{
		{ID: "192.0.2.0/24", Output: []byte("US\tEXAMPLE-AS")},
		{ID: "198.51.100.0/24", Err: errkind.ErrTimeout},
		{ID: "203.0.113.0/24", Output: []byte("\t")},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, 1, failed)

	assert.Equal(t, prefixRow{prefix: "192.0.2.0/24", country: "US", asName: "EXAMPLE-AS"}, rows[0])
	assert.Equal(t, prefixRow{prefix: "198.51.100.0/24", country: "N/A", asName: "N/A"}, rows[1])
	assert.Equal(t, prefixRow{prefix: "203.0.113.0/24", country: "N/A", asName: "N/A"}, rows[2])
}

func TestSplitTraceLocation(t *testing.T) {
	cases := []struct {
		payload  string
		target   string
		location string
	}{
		{"1.1.1.1", "1.1.1.1", ""},
		{"1.1.1.1-us", "1.1.1.1", "us"},
		{"example.com-TW", "example.com", "TW"},
		{"2001:db8::1", "2001:db8::1", ""},
		{"my-host", "my-host", ""},
		{"example.com-toolong", "example.com-toolong", ""},
		{"example.com-v1.2", "example.com-v1.2", ""},
	}
	for _, c := range cases {
		target, location := splitTraceLocation(c.payload)
		assert.Equal(t, c.target, target, c.payload)
		assert.Equal(t, c.location, location, c.payload)
	}
}

func TestRegistryResolveReportsHitAndMiss(t *testing.T) {
	d := testDispatcher(t)

	body, found := d.registryResolve(query.Classify("AS4242429999"))
	assert.False(t, found)
	assert.Contains(t, body, "% 404 Not Found")

	_, found = d.registryResolve(query.Classify("10.99.0.1"))
	assert.False(t, found)

	require.NoError(t, d.deps.Registry.Put("aut-num/AS4242420000", []byte("aut-num:            AS4242420000\n")))
	body, found = d.registryResolve(query.Classify("AS4242420000"))
	assert.True(t, found)
	assert.Contains(t, body, "aut-num:")
}
