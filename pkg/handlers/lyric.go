package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/akaere/whoisd/pkg/query"
)

const lyricAPIURL = "https://lty.vc/lyric?format=json"

type lyricResponse struct {
	Title  string   `json:"title"`
	Author []string `json:"author"`
	Year   int      `json:"year"`
	Lines  []string `json:"lines"`
}

// handleLyric fetches a random Luotianyi lyric from lty.vc. The payload
// is ignored, any -LYRIC query returns a fresh random song.
func (d *Dispatcher) handleLyric(ctx context.Context, q query.Query) (string, error) {
	var lyric lyricResponse
	if err := d.deps.HTTP.GetJSON(ctx, lyricAPIURL, &lyric); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Luotianyi Random Lyric: %s\n", lyric.Title)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n")

	fmt.Fprintf(&b, "song-name: %s\n", lyric.Title)
	b.WriteString("singer: 洛天依 (Luotianyi)\n")
	if len(lyric.Author) > 0 {
		fmt.Fprintf(&b, "author: %s\n", strings.Join(lyric.Author, ", "))
	}
	fmt.Fprintf(&b, "year: %d\n", lyric.Year)
	b.WriteString("source: lty.vc\n")

	b.WriteString("\nlyric-content:\n")
	for _, line := range lyric.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	comment(&b, "Information retrieved from lty.vc API")
	comment(&b, "Query processed by WHOIS server")
	return b.String(), nil
}
