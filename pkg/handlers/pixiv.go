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
	pixivAPIBase    = "https://app-api.pixiv.net"
	pixivListLimit  = 10
	pixivArtworkURL = "https://www.pixiv.net/artworks/"
	pixivUserURL    = "https://www.pixiv.net/users/"
)

type pixivUser struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account"`
	Comment string `json:"comment"`
}

type pixivIllust struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	Caption        string    `json:"caption"`
	CreateDate     string    `json:"create_date"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	PageCount      int       `json:"page_count"`
	TotalView      int64     `json:"total_view"`
	TotalBookmarks int64     `json:"total_bookmarks"`
	User           pixivUser `json:"user"`
	Tags           []struct {
		Name string `json:"name"`
	} `json:"tags"`
	ImageURLs struct {
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"image_urls"`
	MetaSinglePage struct {
		OriginalImageURL string `json:"original_image_url"`
	} `json:"meta_single_page"`
	MetaPages []struct {
		ImageURLs struct {
			Original string `json:"original"`
			Large    string `json:"large"`
		} `json:"image_urls"`
	} `json:"meta_pages"`
}

type pixivUserDetail struct {
	User    pixivUser `json:"user"`
	Profile struct {
		TotalIllusts               int    `json:"total_illusts"`
		TotalManga                 int    `json:"total_manga"`
		TotalNovels                int    `json:"total_novels"`
		TotalIllustBookmarksPublic int    `json:"total_illust_bookmarks_public"`
		TwitterAccount             string `json:"twitter_account"`
		Webpage                    string `json:"webpage"`
	} `json:"profile"`
}

// handlePixiv sub-routes on a second marker inside the payload:
// "user:<id>", "search:<keyword>", "ranking[:<mode>]", "illusts:<id>",
// and anything else is treated as an artwork id. All routes need the
// Pixiv access token.
func (d *Dispatcher) handlePixiv(ctx context.Context, q query.Query) (string, error) {
	if d.deps.Keys.Pixiv == "" {
		return "", fmt.Errorf("Pixiv queries require PIXIV_ACCESS_TOKEN: %w", errkind.ErrFeatureDisabled)
	}
	payload := strings.TrimSpace(q.Payload)

	switch {
	case strings.HasPrefix(payload, "user:"):
		return d.pixivUserInfo(ctx, strings.TrimPrefix(payload, "user:"))
	case strings.HasPrefix(payload, "search:"):
		return d.pixivSearch(ctx, strings.TrimPrefix(payload, "search:"))
	case strings.HasPrefix(payload, "ranking"):
		mode := "day"
		if _, m, ok := strings.Cut(payload, ":"); ok && m != "" {
			mode = m
		}
		return d.pixivRanking(ctx, mode)
	case strings.HasPrefix(payload, "illusts:"):
		return d.pixivUserIllusts(ctx, strings.TrimPrefix(payload, "illusts:"))
	default:
		return d.pixivArtwork(ctx, payload)
	}
}

func (d *Dispatcher) pixivGet(ctx context.Context, u string, dst any) error {
	return d.deps.HTTP.GetJSON(ctx, u, dst, fetch.WithBearer(d.deps.Keys.Pixiv))
}

func (d *Dispatcher) pixivArtwork(ctx context.Context, id string) (string, error) {
	artworkID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid artwork ID %q: %w", id, errkind.ErrInvalidQuery)
	}

	var resp struct {
		Illust pixivIllust `json:"illust"`
	}
	if err := d.pixivGet(ctx, fmt.Sprintf("%s/v1/illust/detail?illust_id=%d", pixivAPIBase, artworkID), &resp); err != nil {
		return "", err
	}
	return formatPixivArtwork(&resp.Illust), nil
}

func formatPixivArtwork(il *pixivIllust) string {
	var b strings.Builder
	b.WriteString("PIXIV ARTWORK INFORMATION\n")
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	pixivField(&b, "Artwork ID", strconv.FormatInt(il.ID, 10))
	pixivField(&b, "Title", il.Title)
	pixivField(&b, "Type", il.Type)
	pixivField(&b, "Artist", il.User.Name)
	if il.User.ID != 0 {
		pixivField(&b, "Artist ID", strconv.FormatInt(il.User.ID, 10))
	}
	pixivField(&b, "Created", il.CreateDate)
	if il.Width > 0 && il.Height > 0 {
		pixivField(&b, "Dimensions", fmt.Sprintf("%dx%d", il.Width, il.Height))
	}
	pixivField(&b, "Pages", strconv.Itoa(il.PageCount))
	pixivField(&b, "Total Views", strconv.FormatInt(il.TotalView, 10))
	pixivField(&b, "Bookmarks", strconv.FormatInt(il.TotalBookmarks, 10))

	if len(il.Tags) > 0 {
		names := make([]string, 0, len(il.Tags))
		for _, t := range il.Tags {
			names = append(names, t.Name)
		}
		pixivField(&b, "Tags", strings.Join(names, ", "))
	}

	b.WriteString("\n")
	pixivField(&b, "URL", pixivArtworkURL+strconv.FormatInt(il.ID, 10))

	b.WriteString("\nImage URLs:\n")
	if il.MetaSinglePage.OriginalImageURL != "" {
		fmt.Fprintf(&b, "  Original:      %s\n", il.MetaSinglePage.OriginalImageURL)
	}
	if il.ImageURLs.Large != "" {
		fmt.Fprintf(&b, "  Large:         %s\n", il.ImageURLs.Large)
	}
	if il.ImageURLs.Medium != "" {
		fmt.Fprintf(&b, "  Medium:        %s\n", il.ImageURLs.Medium)
	}
	for i, page := range il.MetaPages {
		fmt.Fprintf(&b, "  Page %d:\n", i+1)
		if page.ImageURLs.Original != "" {
			fmt.Fprintf(&b, "    Original:  %s\n", page.ImageURLs.Original)
		}
		if page.ImageURLs.Large != "" {
			fmt.Fprintf(&b, "    Large:     %s\n", page.ImageURLs.Large)
		}
	}

	if caption := strings.TrimSpace(il.Caption); caption != "" {
		fmt.Fprintf(&b, "\nCaption:\n%s\n", caption)
	}
	return b.String()
}

func (d *Dispatcher) pixivUserInfo(ctx context.Context, id string) (string, error) {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid user ID %q: %w", id, errkind.ErrInvalidQuery)
	}

	var resp pixivUserDetail
	if err := d.pixivGet(ctx, fmt.Sprintf("%s/v1/user/detail?user_id=%d", pixivAPIBase, userID), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("PIXIV USER INFORMATION\n")
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")

	pixivField(&b, "User ID", strconv.FormatInt(resp.User.ID, 10))
	pixivField(&b, "Name", resp.User.Name)
	pixivField(&b, "Account", resp.User.Account)
	pixivField(&b, "Total Illusts", strconv.Itoa(resp.Profile.TotalIllusts))
	pixivField(&b, "Total Manga", strconv.Itoa(resp.Profile.TotalManga))
	pixivField(&b, "Total Novels", strconv.Itoa(resp.Profile.TotalNovels))
	pixivField(&b, "Public Bookmarks", strconv.Itoa(resp.Profile.TotalIllustBookmarksPublic))
	if resp.Profile.TwitterAccount != "" {
		pixivField(&b, "Twitter", "@"+resp.Profile.TwitterAccount)
	}
	if resp.Profile.Webpage != "" {
		pixivField(&b, "Webpage", resp.Profile.Webpage)
	}

	b.WriteString("\n")
	pixivField(&b, "Profile URL", pixivUserURL+strconv.FormatInt(resp.User.ID, 10))
	if comment := strings.TrimSpace(resp.User.Comment); comment != "" {
		fmt.Fprintf(&b, "\nComment:\n%s\n", comment)
	}
	return b.String(), nil
}

func (d *Dispatcher) pixivSearch(ctx context.Context, keyword string) (string, error) {
	if keyword == "" {
		return "", fmt.Errorf("empty search keyword: %w", errkind.ErrInvalidQuery)
	}

	params := url.Values{
		"word":          {keyword},
		"search_target": {"partial_match_for_tags"},
		"sort":          {"date_desc"},
		"filter":        {"for_ios"},
	}
	var resp struct {
		Illusts []pixivIllust `json:"illusts"`
	}
	if err := d.pixivGet(ctx, pixivAPIBase+"/v1/search/illust?"+params.Encode(), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("PIXIV SEARCH RESULTS\n")
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	pixivField(&b, "Keyword", keyword)
	pixivField(&b, "Results", strconv.Itoa(len(resp.Illusts)))
	b.WriteString("\n")
	writePixivList(&b, resp.Illusts)
	return b.String(), nil
}

func (d *Dispatcher) pixivRanking(ctx context.Context, mode string) (string, error) {
	params := url.Values{
		"mode":   {mode},
		"filter": {"for_ios"},
	}
	var resp struct {
		Illusts []pixivIllust `json:"illusts"`
	}
	if err := d.pixivGet(ctx, pixivAPIBase+"/v1/illust/ranking?"+params.Encode(), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("PIXIV RANKING\n")
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	pixivField(&b, "Mode", mode)
	pixivField(&b, "Results", strconv.Itoa(len(resp.Illusts)))
	b.WriteString("\n")
	writePixivList(&b, resp.Illusts)
	return b.String(), nil
}

func (d *Dispatcher) pixivUserIllusts(ctx context.Context, id string) (string, error) {
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid user ID %q: %w", id, errkind.ErrInvalidQuery)
	}

	var resp struct {
		Illusts []pixivIllust `json:"illusts"`
	}
	if err := d.pixivGet(ctx, fmt.Sprintf("%s/v1/user/illusts?user_id=%d&filter=for_ios", pixivAPIBase, userID), &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("PIXIV USER ARTWORKS\n")
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	pixivField(&b, "User ID", strconv.FormatInt(userID, 10))
	pixivField(&b, "Results", strconv.Itoa(len(resp.Illusts)))
	b.WriteString("\n")

	illusts := resp.Illusts
	if len(illusts) > pixivListLimit {
		illusts = illusts[:pixivListLimit]
	}
	for i, il := range illusts {
		fmt.Fprintf(&b, "%d. %s (ID: %d)\n", i+1, il.Title, il.ID)
		if il.CreateDate != "" {
			fmt.Fprintf(&b, "   Created: %s\n", il.CreateDate)
		}
		fmt.Fprintf(&b, "   Bookmarks: %d\n", il.TotalBookmarks)
		fmt.Fprintf(&b, "   URL: %s%d\n", pixivArtworkURL, il.ID)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writePixivList(b *strings.Builder, illusts []pixivIllust) {
	if len(illusts) > pixivListLimit {
		illusts = illusts[:pixivListLimit]
	}
	for i, il := range illusts {
		fmt.Fprintf(b, "%d. %s (ID: %d)\n", i+1, il.Title, il.ID)
		if il.User.Name != "" {
			fmt.Fprintf(b, "   Artist: %s\n", il.User.Name)
		}
		fmt.Fprintf(b, "   Bookmarks: %d\n", il.TotalBookmarks)
		fmt.Fprintf(b, "   URL: %s%d\n", pixivArtworkURL, il.ID)
		b.WriteString("\n")
	}
}

// pixivField pads the key to the fixed 17-column layout the Pixiv
// renderers use.
func pixivField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%-17s%s\n", key+":", value)
}
