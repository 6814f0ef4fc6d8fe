package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/query"
)

const mealDBRandomURL = "https://www.themealdb.com/api/json/v1/1/random.php"

type mealDBResponse struct {
	Meals []mealDBMeal `json:"meals"`
}

type mealDBMeal struct {
	ID           string `json:"idMeal"`
	Name         string `json:"strMeal"`
	Category     string `json:"strCategory"`
	Area         string `json:"strArea"`
	Instructions string `json:"strInstructions"`
	Thumb        string `json:"strMealThumb"`
	Tags         string `json:"strTags"`
	Youtube      string `json:"strYoutube"`

	Ingredient1  string `json:"strIngredient1"`
	Ingredient2  string `json:"strIngredient2"`
	Ingredient3  string `json:"strIngredient3"`
	Ingredient4  string `json:"strIngredient4"`
	Ingredient5  string `json:"strIngredient5"`
	Ingredient6  string `json:"strIngredient6"`
	Ingredient7  string `json:"strIngredient7"`
	Ingredient8  string `json:"strIngredient8"`
	Ingredient9  string `json:"strIngredient9"`
	Ingredient10 string `json:"strIngredient10"`

	Measure1  string `json:"strMeasure1"`
	Measure2  string `json:"strMeasure2"`
	Measure3  string `json:"strMeasure3"`
	Measure4  string `json:"strMeasure4"`
	Measure5  string `json:"strMeasure5"`
	Measure6  string `json:"strMeasure6"`
	Measure7  string `json:"strMeasure7"`
	Measure8  string `json:"strMeasure8"`
	Measure9  string `json:"strMeasure9"`
	Measure10 string `json:"strMeasure10"`
}

// ingredients joins each non-empty ingredient with its measure, in the
// order TheMealDB numbers them.
func (m *mealDBMeal) ingredients() []string {
	pairs := [][2]string{
		{m.Ingredient1, m.Measure1},
		{m.Ingredient2, m.Measure2},
		{m.Ingredient3, m.Measure3},
		{m.Ingredient4, m.Measure4},
		{m.Ingredient5, m.Measure5},
		{m.Ingredient6, m.Measure6},
		{m.Ingredient7, m.Measure7},
		{m.Ingredient8, m.Measure8},
		{m.Ingredient9, m.Measure9},
		{m.Ingredient10, m.Measure10},
	}

	var out []string
	for _, p := range pairs {
		ing := strings.TrimSpace(p[0])
		if ing == "" {
			continue
		}
		if measure := strings.TrimSpace(p[1]); measure != "" {
			ing = measure + " - " + ing
		}
		out = append(out, ing)
	}
	return out
}

// handleMeal suggests a random dish from TheMealDB.
func (d *Dispatcher) handleMeal(ctx context.Context, q query.Query) (string, error) {
	var resp mealDBResponse
	if err := d.deps.HTTP.GetJSON(ctx, mealDBRandomURL, &resp); err != nil {
		return "", err
	}
	if len(resp.Meals) == 0 {
		return "", fmt.Errorf("no meal in TheMealDB response: %w", errkind.ErrUpstreamMalformed)
	}
	return formatMeal(&resp.Meals[0]), nil
}

func formatMeal(meal *mealDBMeal) string {
	var b strings.Builder

	comment(&b, "Meal Information from TheMealDB")
	comment(&b, "https://www.themealdb.com/")
	b.WriteString("\n")

	mealField(&b, "meal-id", meal.ID)
	mealField(&b, "meal-name", meal.Name)
	mealField(&b, "category", meal.Category)
	mealField(&b, "cuisine", meal.Area)
	if strings.TrimSpace(meal.Tags) != "" {
		mealField(&b, "tags", meal.Tags)
	}

	if ingredients := meal.ingredients(); len(ingredients) > 0 {
		b.WriteString("\n")
		comment(&b, "Ingredients")
		for _, ing := range ingredients {
			mealField(&b, "ingredient", ing)
		}
	}

	if strings.TrimSpace(meal.Instructions) != "" {
		b.WriteString("\n")
		comment(&b, "Instructions")
		step := 0
		for _, line := range strings.Split(strings.ReplaceAll(meal.Instructions, "\r", ""), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			step++
			mealField(&b, fmt.Sprintf("instruction-%d", step), line)
		}
	}

	if strings.TrimSpace(meal.Youtube) != "" {
		b.WriteString("\n")
		mealField(&b, "youtube-video", meal.Youtube)
	}
	if strings.TrimSpace(meal.Thumb) != "" {
		mealField(&b, "meal-image", meal.Thumb)
	}

	b.WriteString("\n")
	comment(&b, "Query: 今天吃什么 or -MEAL")
	comment(&b, "Powered by TheMealDB API")

	return b.String()
}

// mealField writes key and value with the key padded to 19 columns,
// matching TheMealDB presentation rather than the RPSL default.
func mealField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%-19s%s\n", key+":", value)
}

// chineseRecipe is one entry of the bundled recipe set served by -MEAL-CN.
type chineseRecipe struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Source       string   `json:"source"`
}

// handleMealCN suggests a random Chinese dish from the bundled recipe
// set. Unlike -MEAL it needs no upstream, so it never fails once the
// recipe data has loaded.
func (d *Dispatcher) handleMealCN(ctx context.Context, q query.Query) (string, error) {
	var recipes []chineseRecipe
	if err := json.Unmarshal(d.deps.Recipes, &recipes); err != nil {
		return "", fmt.Errorf("decode bundled recipes: %w", errkind.ErrInternal)
	}
	if len(recipes) == 0 {
		return "", fmt.Errorf("no bundled recipes available: %w", errkind.ErrInternal)
	}
	return formatChineseRecipe(&recipes[rand.Intn(len(recipes))]), nil
}

func formatChineseRecipe(r *chineseRecipe) string {
	var b strings.Builder

	comment(&b, "Chinese Recipe Suggestion from HowToCook")
	comment(&b, "https://github.com/Anduin2017/HowToCook")
	b.WriteString("\n")

	mealField(&b, "meal-name", r.Name)
	mealField(&b, "category", r.Category)
	mealField(&b, "cuisine", "Chinese")
	mealField(&b, "difficulty", r.Difficulty)

	if len(r.Ingredients) > 0 {
		b.WriteString("\n")
		comment(&b, "Ingredients")
		for _, ing := range r.Ingredients {
			mealField(&b, "ingredient", ing)
		}
	}

	if len(r.Instructions) > 0 {
		b.WriteString("\n")
		comment(&b, "Instructions")
		for i, line := range r.Instructions {
			mealField(&b, fmt.Sprintf("instruction-%d", i+1), line)
		}
	}

	if r.Source != "" {
		b.WriteString("\n")
		mealField(&b, "recipe-source", r.Source)
	}

	b.WriteString("\n")
	comment(&b, "Query: 今天吃什么中国 or -MEAL-CN")
	comment(&b, "Recipes adapted from the HowToCook project")

	return b.String()
}
