package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
)

const moegirlAPIURL = "https://zh.moegirl.org.cn/api.php"

type moegirlPage struct {
	PageID    int    `json:"pageid"`
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Revisions []struct {
		Content string `json:"*"`
	} `json:"revisions"`
}

type moegirlResponse struct {
	Query *struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
		Pages map[string]moegirlPage `json:"pages"`
	} `json:"query"`
}

// acgcPattern maps one Moegirl infobox field onto an output key. The
// table order fixes the output order.
type acgcPattern struct {
	re  *regexp.Regexp
	key string
}

var acgcPatterns = compileACGCPatterns()

func compileACGCPatterns() []acgcPattern {
	raw := []struct{ expr, key string }{
		{`作品\s*=\s*([^|\n\}]+)`, "source-work"},
		{`系列\s*=\s*([^|\n\}]+)`, "series"},
		{`声优\s*[：=:|]\s*([^|\n\}]+)`, "voice-actor"},
		{`配音\s*[：=:|]\s*([^|\n\}]+)`, "voice-actor"},
		{`CV\s*[：=:|]\s*([^|\n\}]+)`, "voice-actor"},
		{`日配\s*[：=:|]\s*([^|\n\}]+)`, "voice-actor-jp"},
		{`中配\s*[：=:|]\s*([^|\n\}]+)`, "voice-actor-cn"},
		{`年龄\s*[：=:|]\s*([^|\n\}]+)`, "age"},
		{`生日\s*[：=:|]\s*([^|\n\}]+)`, "birthday"},
		{`身高\s*[：=:|]\s*([^|\n\}]+)`, "height"},
		{`体重\s*[：=:|]\s*([^|\n\}]+)`, "weight"},
		{`性别\s*[：=:|]\s*([^|\n\}]+)`, "gender"},
		{`种族\s*[：=:|]\s*([^|\n\}]+)`, "species"},
		{`血型\s*[：=:|]\s*([^|\n\}]+)`, "blood-type"},
		{`发色\s*[：=:|]\s*([^|\n\}]+)`, "hair-color"},
		{`瞳色\s*[：=:|]\s*([^|\n\}]+)`, "eye-color"},
		{`出身\s*[：=:|]\s*([^|\n\}]+)`, "origin"},
		{`职业\s*[：=:|]\s*([^|\n\}]+)`, "occupation"},
		{`身份\s*[：=:|]\s*([^|\n\}]+)`, "identity"},
		{`性格\s*[：=:|]\s*([^|\n\}]+)`, "personality"},
		{`萌点\s*[：=:|]\s*([^|\n\}]+)`, "moe-points"},
		{`属性\s*[：=:|]\s*([^|\n\}]+)`, "attributes"},
		{`喜好\s*[：=:|]\s*([^|\n\}]+)`, "hobby"},
		{`爱好\s*[：=:|]\s*([^|\n\}]+)`, "hobby"},
		{`能力\s*[：=:|]\s*([^|\n\}]+)`, "ability"},
		{`技能\s*[：=:|]\s*([^|\n\}]+)`, "skill"},
		{`武器\s*[：=:|]\s*([^|\n\}]+)`, "weapon"},
		{`称号\s*[：=:|]\s*([^|\n\}]+)`, "title"},
		{`别名\s*[：=:|]\s*([^|\n\}]+)`, "alias"},
		{`外号\s*[：=:|]\s*([^|\n\}]+)`, "nickname"},
		{`亲属\s*[：=:|]\s*([^|\n\}]+)`, "family"},
		{`恋人\s*[：=:|]\s*([^|\n\}]+)`, "lover"},
	}
	out := make([]acgcPattern, 0, len(raw))
	for _, p := range raw {
		out = append(out, acgcPattern{re: regexp.MustCompile(p.expr), key: p.key})
	}
	return out
}

var (
	wikiTemplateRe  = regexp.MustCompile(`\{\{[^}]*(\}\})?`)
	wikiLinkRe      = regexp.MustCompile(`\[\[([^|\]]*\|)?([^\]]*)\]\]`)
	wikiOpenLinkRe  = regexp.MustCompile(`\[\[[^\]]*$`)
	wikiHTMLTagRe   = regexp.MustCompile(`<[^>]*>`)
	wikiPipesRe     = regexp.MustCompile(`\|+`)
	wikiSpaceRe     = regexp.MustCompile(`\s+`)
	wikiCategoryRe  = regexp.MustCompile(`\[\[Category:([^\]]+)\]\]`)
	acgcCategoryCue = []string{"角色", "人物", "萌点", "属性", "声优", "CV"}
)

// handleACGC looks up an anime/comic/game character on Moegirl Wiki
// (zh.moegirl.org.cn) via the MediaWiki API.
func (d *Dispatcher) handleACGC(ctx context.Context, q query.Query) (string, error) {
	title, ok, err := d.moegirlSearch(ctx, q.Payload)
	if err != nil {
		return fmt.Sprintf("ACGC Query Failed for: %s\nError: %s\n", q.Payload, errMessage(err)), nil
	}
	if !ok {
		return fmt.Sprintf("ACGC Character Not Found: %s\nNo matching characters found on Moegirl Wiki.\n", q.Payload), nil
	}
	return d.moegirlCharacter(ctx, title)
}

func (d *Dispatcher) moegirlSearch(ctx context.Context, term string) (string, bool, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"search"},
		"srsearch":    {term},
		"srlimit":     {"5"},
		"srnamespace": {"0"},
	}
	var resp moegirlResponse
	if err := d.deps.HTTP.GetJSON(ctx, moegirlAPIURL+"?"+params.Encode(), &resp); err != nil {
		return "", false, err
	}
	if resp.Query == nil || len(resp.Query.Search) == 0 {
		return "", false, nil
	}
	return resp.Query.Search[0].Title, true, nil
}

func (d *Dispatcher) moegirlCharacter(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":          {"query"},
		"format":          {"json"},
		"titles":          {title},
		"prop":            {"extracts|revisions"},
		"exintro":         {"1"},
		"explaintext":     {"1"},
		"exsectionformat": {"plain"},
		"rvprop":          {"content"},
		"rvlimit":         {"1"},
		"exlimit":         {"1"},
	}
	var resp moegirlResponse
	if err := d.deps.HTTP.GetJSON(ctx, moegirlAPIURL+"?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Query != nil {
		for _, page := range resp.Query.Pages {
			if page.PageID != 0 {
				return formatMoegirlCharacter(&page), nil
			}
		}
	}
	return fmt.Sprintf("ACGC Character Not Found: %s\nNo matching characters found on Moegirl Wiki.\n", title), nil
}

func formatMoegirlCharacter(page *moegirlPage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ACGC Character Information: %s\n", page.Title)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n")

	if page.PageID != 0 {
		fmt.Fprintf(&b, "page-id: %d\n", page.PageID)
	}
	fmt.Fprintf(&b, "character-name: %s\n", page.Title)
	b.WriteString("source: Moegirl Wiki (萌娘百科)\n")

	if desc := cleanWikiText(page.Extract); desc != "" {
		fmt.Fprintf(&b, "description: %s\n", desc)
	}

	if len(page.Revisions) > 0 {
		b.WriteString(extractCharacterInfo(page.Revisions[0].Content))
	}

	fmt.Fprintf(&b, "moegirl-url: https://zh.moegirl.org.cn/%s\n", url.PathEscape(page.Title))
	return b.String()
}

// extractCharacterInfo pulls infobox fields from raw wiki markup. Values
// are deduplicated per field and emitted in pattern-table order.
func extractCharacterInfo(content string) string {
	type fieldValues struct {
		key    string
		values []string
	}
	var ordered []*fieldValues
	byKey := make(map[string]*fieldValues)
	seen := make(map[string]bool)

	for _, p := range acgcPatterns {
		for _, m := range p.re.FindAllStringSubmatch(content, -1) {
			v := cleanWikiText(m[1])
			if !validInfoboxValue(v) {
				continue
			}
			dedupe := p.key + "\x00" + v
			if seen[dedupe] {
				continue
			}
			seen[dedupe] = true
			fv, ok := byKey[p.key]
			if !ok {
				fv = &fieldValues{key: p.key}
				byKey[p.key] = fv
				ordered = append(ordered, fv)
			}
			fv.values = append(fv.values, v)
		}
	}

	var b strings.Builder
	for _, fv := range ordered {
		fmt.Fprintf(&b, "%s: %s\n", fv.key, strings.Join(fv.values, ", "))
	}

	var categories []string
	for _, m := range wikiCategoryRe.FindAllStringSubmatch(content, -1) {
		cat := m[1]
		for _, cue := range acgcCategoryCue {
			if strings.Contains(cat, cue) {
				categories = append(categories, cat)
				break
			}
		}
	}
	if len(categories) > 0 && len(categories) <= 10 {
		fmt.Fprintf(&b, "categories: %s\n", strings.Join(categories, ", "))
	}

	return b.String()
}

func validInfoboxValue(v string) bool {
	return v != "" &&
		len(v) > 1 && len(v) < 300 &&
		!strings.HasPrefix(v, "Category:") &&
		!strings.Contains(v, "内容=") &&
		!strings.Contains(v, "{{") &&
		!strings.Contains(v, "}}")
}

// cleanWikiText strips MediaWiki markup down to plain display text.
func cleanWikiText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || text == "=" || strings.HasPrefix(text, "内容=") {
		return ""
	}

	text = wikiTemplateRe.ReplaceAllString(text, "")
	text = wikiLinkRe.ReplaceAllString(text, "$2")
	text = wikiOpenLinkRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "'''", "")
	text = strings.ReplaceAll(text, "''", "")
	text = wikiHTMLTagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "|-", "")
	text = wikiPipesRe.ReplaceAllString(text, " ")
	text = wikiSpaceRe.ReplaceAllString(text, " ")

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
	).Replace(text)

	text = strings.TrimRight(text, ",、")
	text = strings.TrimSpace(text)
	if len(text) < 2 || text == "=" || strings.Contains(text, "内容=") {
		return ""
	}
	return text
}
