package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

const (
	steamAppDetailsURL  = "https://store.steampowered.com/api/appdetails?appids=%d&l=english"
	steamStoreSearchURL = "https://store.steampowered.com/api/storesearch/?term=%s&l=english&cc=US"
	steamAppListURL     = "https://api.steampowered.com/ISteamApps/GetAppList/v2/"
	steamSummariesURL   = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v0002/?key=%s&steamids=%s"
)

const steamSearchLimit = 10

// App IDs stay well below ten million; SteamID64 values are 17 digits.
func steamLooksLikeAppID(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n >= 10_000_000 {
		return 0, false
	}
	return uint32(n), true
}

type steamAppData struct {
	SteamAppID  uint32   `json:"steam_appid"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	IsFree      bool     `json:"is_free"`
	Developers  []string `json:"developers"`
	Publishers  []string `json:"publishers"`
	Website     string   `json:"website"`
	ReleaseDate *struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Platforms *struct {
		Windows bool `json:"windows"`
		Mac     bool `json:"mac"`
		Linux   bool `json:"linux"`
	} `json:"platforms"`
	PriceOverview *struct {
		Currency         string `json:"currency"`
		InitialFormatted string `json:"initial_formatted"`
		FinalFormatted   string `json:"final_formatted"`
		DiscountPercent  int    `json:"discount_percent"`
	} `json:"price_overview"`
	Metacritic *struct {
		Score int    `json:"score"`
		URL   string `json:"url"`
	} `json:"metacritic"`
	Recommendations *struct {
		Total int `json:"total"`
	} `json:"recommendations"`
	Achievements *struct {
		Total int `json:"total"`
	} `json:"achievements"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Categories []struct {
		Description string `json:"description"`
	} `json:"categories"`
	ShortDescription string `json:"short_description"`
}

type steamPlayer struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	RealName                 string `json:"realname"`
	ProfileURL               string `json:"profileurl"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	ProfileState             int    `json:"profilestate"`
	PersonaState             int    `json:"personastate"`
	TimeCreated              int64  `json:"timecreated"`
	LocCountryCode           string `json:"loccountrycode"`
	LocStateCode             string `json:"locstatecode"`
	PrimaryClanID            string `json:"primaryclanid"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
}

// handleSteam serves both Steam store applications (numeric short IDs) and
// user profiles (SteamID64, needs an API key).
func (d *Dispatcher) handleSteam(ctx context.Context, q query.Query) (string, error) {
	if appID, ok := steamLooksLikeAppID(q.Payload); ok {
		return d.steamApp(ctx, appID)
	}
	return d.steamUser(ctx, q.Payload)
}

func (d *Dispatcher) steamApp(ctx context.Context, appID uint32) (string, error) {
	var envelope map[string]struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, fmt.Sprintf(steamAppDetailsURL, appID), &envelope); err != nil {
		return "", err
	}

	entry, ok := envelope[strconv.FormatUint(uint64(appID), 10)]
	if !ok || !entry.Success || len(entry.Data) == 0 {
		return fmt.Sprintf("Steam App Not Found for ID: %d\nThe application may not exist or may be private.\n", appID), nil
	}
	var app steamAppData
	if err := json.Unmarshal(entry.Data, &app); err != nil {
		return "", fmt.Errorf("steam app %d: %v: %w", appID, err, errkind.ErrUpstreamMalformed)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Steam Application Information for ID: %d\n", app.SteamAppID)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "app-id: %d\n", app.SteamAppID)
	fmt.Fprintf(&b, "name: %s\n", app.Name)
	fmt.Fprintf(&b, "type: %s\n", app.Type)
	fmt.Fprintf(&b, "is-free: %t\n", app.IsFree)
	if len(app.Developers) > 0 {
		fmt.Fprintf(&b, "developers: %s\n", strings.Join(app.Developers, ", "))
	}
	if len(app.Publishers) > 0 {
		fmt.Fprintf(&b, "publishers: %s\n", strings.Join(app.Publishers, ", "))
	}
	if app.ReleaseDate != nil {
		fmt.Fprintf(&b, "release-date: %s\n", app.ReleaseDate.Date)
		fmt.Fprintf(&b, "coming-soon: %t\n", app.ReleaseDate.ComingSoon)
	}
	if app.Platforms != nil {
		var platforms []string
		if app.Platforms.Windows {
			platforms = append(platforms, "Windows")
		}
		if app.Platforms.Mac {
			platforms = append(platforms, "macOS")
		}
		if app.Platforms.Linux {
			platforms = append(platforms, "Linux")
		}
		if len(platforms) > 0 {
			fmt.Fprintf(&b, "platforms: %s\n", strings.Join(platforms, ", "))
		}
	}
	if price := app.PriceOverview; price != nil {
		if price.DiscountPercent > 0 {
			fmt.Fprintf(&b, "price: %s (%d%%↓)\n", price.FinalFormatted, price.DiscountPercent)
			fmt.Fprintf(&b, "original-price: %s\n", price.InitialFormatted)
		} else {
			fmt.Fprintf(&b, "price: %s\n", price.FinalFormatted)
		}
		fmt.Fprintf(&b, "currency: %s\n", price.Currency)
	}
	if app.Metacritic != nil {
		fmt.Fprintf(&b, "metacritic-score: %d\n", app.Metacritic.Score)
		fmt.Fprintf(&b, "metacritic-url: %s\n", app.Metacritic.URL)
	}
	if app.Recommendations != nil {
		fmt.Fprintf(&b, "recommendations: %d\n", app.Recommendations.Total)
	}
	if app.Achievements != nil {
		fmt.Fprintf(&b, "achievements: %d\n", app.Achievements.Total)
	}
	if app.Website != "" {
		fmt.Fprintf(&b, "website: %s\n", app.Website)
	}
	if len(app.Genres) > 0 {
		names := make([]string, len(app.Genres))
		for i, g := range app.Genres {
			names[i] = g.Description
		}
		fmt.Fprintf(&b, "genres: %s\n", strings.Join(names, ", "))
	}
	if len(app.Categories) > 0 {
		names := make([]string, len(app.Categories))
		for i, c := range app.Categories {
			names[i] = c.Description
		}
		fmt.Fprintf(&b, "categories: %s\n", strings.Join(names, ", "))
	}
	if app.ShortDescription != "" {
		desc := strings.ReplaceAll(strings.ReplaceAll(app.ShortDescription, "\r\n", " "), "\n", " ")
		fmt.Fprintf(&b, "description: %s\n", desc)
	}
	fmt.Fprintf(&b, "steam-url: https://store.steampowered.com/app/%d/\n", app.SteamAppID)
	return b.String(), nil
}

func (d *Dispatcher) steamUser(ctx context.Context, steamID string) (string, error) {
	if d.deps.Keys.Steam == "" {
		return "", fmt.Errorf("steam user lookups need STEAM_API_KEY: %w", errkind.ErrFeatureDisabled)
	}

	var resp struct {
		Response struct {
			Players []steamPlayer `json:"players"`
		} `json:"response"`
	}
	reqURL := fmt.Sprintf(steamSummariesURL, url.QueryEscape(d.deps.Keys.Steam), url.QueryEscape(steamID))
	if err := d.deps.HTTP.GetJSON(ctx, reqURL, &resp); err != nil {
		return "", err
	}
	if len(resp.Response.Players) == 0 {
		return fmt.Sprintf("Steam User Not Found for ID: %s\nProfile may not exist or may be private.\n", steamID), nil
	}
	p := resp.Response.Players[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Steam User Profile Information for ID: %s\n", p.SteamID)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "steamid: %s\n", p.SteamID)
	fmt.Fprintf(&b, "personaname: %s\n", p.PersonaName)
	if p.RealName != "" {
		fmt.Fprintf(&b, "realname: %s\n", p.RealName)
	}
	fmt.Fprintf(&b, "profileurl: %s\n", p.ProfileURL)
	fmt.Fprintf(&b, "visibility: %s\n", steamVisibility(p.CommunityVisibilityState))
	fmt.Fprintf(&b, "profile-state: %s\n", steamProfileState(p.ProfileState))
	fmt.Fprintf(&b, "status: %s\n", steamPersonaState(p.PersonaState))
	if p.TimeCreated > 0 {
		fmt.Fprintf(&b, "created: %s\n", utcStampUnix(time.Unix(p.TimeCreated, 0)))
	}
	if p.LocCountryCode != "" {
		fmt.Fprintf(&b, "country: %s\n", p.LocCountryCode)
	}
	if p.LocStateCode != "" {
		fmt.Fprintf(&b, "state: %s\n", p.LocStateCode)
	}
	if p.PrimaryClanID != "" {
		fmt.Fprintf(&b, "primary-clan-id: %s\n", p.PrimaryClanID)
	}
	fmt.Fprintf(&b, "avatar: %s\n", p.Avatar)
	fmt.Fprintf(&b, "avatar-medium: %s\n", p.AvatarMedium)
	fmt.Fprintf(&b, "avatar-full: %s\n", p.AvatarFull)
	return b.String(), nil
}

func steamVisibility(state int) string {
	switch state {
	case 1:
		return "Private"
	case 3:
		return "Friends Only"
	default:
		return "Public"
	}
}

func steamProfileState(state int) string {
	switch state {
	case 0:
		return "Not Configured"
	case 1:
		return "Configured"
	default:
		return "Unknown"
	}
}

func steamPersonaState(state int) string {
	switch state {
	case 0:
		return "Offline"
	case 1:
		return "Online"
	case 2:
		return "Busy"
	case 3:
		return "Away"
	case 4:
		return "Snooze"
	case 5:
		return "Looking to trade"
	case 6:
		return "Looking to play"
	default:
		return "Unknown"
	}
}

type steamSearchHit struct {
	appID      uint32
	name       string
	appType    string
	price      string
	platforms  string
	comingSoon bool
}

// handleSteamSearch searches the store API and falls back to a fuzzy match
// over the full application list when the store search is unavailable.
func (d *Dispatcher) handleSteamSearch(ctx context.Context, q query.Query) (string, error) {
	hits, err := d.steamStoreSearch(ctx, q.Payload)
	if err != nil {
		hits, err = d.steamAppListSearch(ctx, q.Payload)
		if err != nil {
			return "", err
		}
	}
	if len(hits) == 0 {
		return fmt.Sprintf("No Steam games found matching: %s\n", q.Payload), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Steam Game Search Results for: %s\n", q.Payload)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Found %d games:\n\n", len(hits))

	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. Game Information\n", i+1)
		b.WriteString(strings.Repeat("-", 25))
		b.WriteByte('\n')
		fmt.Fprintf(&b, "app-id: %d\n", hit.appID)
		fmt.Fprintf(&b, "name: %s\n", hit.name)
		fmt.Fprintf(&b, "type: %s\n", hit.appType)
		if hit.price != "" {
			fmt.Fprintf(&b, "price: %s\n", hit.price)
		}
		fmt.Fprintf(&b, "platforms: %s\n", hit.platforms)
		if hit.comingSoon {
			b.WriteString("status: Coming Soon\n")
		}
		fmt.Fprintf(&b, "steam-url: https://store.steampowered.com/app/%d/\n", hit.appID)
		b.WriteByte('\n')
	}

	comment(&b, "Search limited to top %d results", steamSearchLimit)
	return b.String(), nil
}

func (d *Dispatcher) steamStoreSearch(ctx context.Context, term string) ([]steamSearchHit, error) {
	var resp struct {
		Items []struct {
			ID    uint32 `json:"id"`
			Name  string `json:"name"`
			Type  string `json:"type"`
			Price *struct {
				Currency string `json:"currency"`
				Final    int    `json:"final"`
			} `json:"price"`
			Platforms *struct {
				Windows bool `json:"windows"`
				Mac     bool `json:"mac"`
				Linux   bool `json:"linux"`
			} `json:"platforms"`
			ComingSoon bool `json:"coming_soon"`
		} `json:"items"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, fmt.Sprintf(steamStoreSearchURL, url.QueryEscape(term)), &resp); err != nil {
		return nil, err
	}

	var hits []steamSearchHit
	for _, item := range resp.Items {
		if len(hits) >= steamSearchLimit {
			break
		}
		hit := steamSearchHit{
			appID:      item.ID,
			name:       item.Name,
			appType:    "game",
			platforms:  "N/A",
			comingSoon: item.ComingSoon,
		}
		if item.Type != "" {
			hit.appType = item.Type
		}
		if item.Price != nil {
			hit.price = fmt.Sprintf("%.2f %s", float64(item.Price.Final)/100, item.Price.Currency)
		}
		if item.Platforms != nil {
			var platforms []string
			if item.Platforms.Windows {
				platforms = append(platforms, "Windows")
			}
			if item.Platforms.Mac {
				platforms = append(platforms, "macOS")
			}
			if item.Platforms.Linux {
				platforms = append(platforms, "Linux")
			}
			if len(platforms) > 0 {
				hit.platforms = strings.Join(platforms, ", ")
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (d *Dispatcher) steamAppListSearch(ctx context.Context, term string) ([]steamSearchHit, error) {
	var resp struct {
		AppList struct {
			Apps []struct {
				AppID uint32 `json:"appid"`
				Name  string `json:"name"`
			} `json:"apps"`
		} `json:"applist"`
	}
	if err := d.deps.HTTP.GetJSON(ctx, steamAppListURL, &resp); err != nil {
		return nil, err
	}

	type scored struct {
		hit   steamSearchHit
		score int
	}
	needle := strings.ToLower(term)
	var matches []scored
	for _, app := range resp.AppList.Apps {
		name := strings.ToLower(app.Name)
		score := 0
		switch {
		case name == needle:
			score = 100
		case strings.HasPrefix(name, needle):
			score = 50
		case strings.Contains(name, needle):
			score = 25
		}
		if score == 0 {
			continue
		}
		matches = append(matches, scored{
			hit:   steamSearchHit{appID: app.AppID, name: app.Name, appType: "app", platforms: "N/A"},
			score: score,
		})
	}

	// stable so equal scores keep the app list's order
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > steamSearchLimit {
		matches = matches[:steamSearchLimit]
	}
	hits := make([]steamSearchHit, len(matches))
	for i, m := range matches {
		hits[i] = m.hit
	}
	return hits, nil
}
