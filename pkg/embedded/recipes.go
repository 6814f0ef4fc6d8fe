package embedded

import (
	_ "embed"
	"os"

	"github.com/akaere/whoisd/pkg/log"
)

//go:embed recipes.json
var recipes []byte

// Recipes returns the bundled recipe JSON.
func Recipes() []byte {
	return recipes
}

// LoadRecipes prefers an on-disk recipe file over the compiled-in copy.
func LoadRecipes(path string) []byte {
	if path == "" {
		return recipes
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithComponent("embedded").Warn().Err(err).Str("path", path).Msg("recipe file unreadable, using bundled copy")
		}
		return recipes
	}
	return data
}
