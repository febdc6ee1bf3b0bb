package shoplist

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"groceries-cli/internal/memrepo"
	"groceries-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func winterRepo() *memrepo.Repo {
	repo := memrepo.New()
	repo.SeedMenu(1, "Winter")
	repo.SeedMeal(10, "Soup", 1)
	repo.SeedMeal(11, "Stew", 1)
	repo.SeedMeal(12, "Salad", 0)
	repo.SeedIngredient(1, "Salt", "spice", "g")
	repo.SeedIngredient(2, "Leek", "veg", "")
	repo.SeedIngredient(3, "Water", "", "ml")
	repo.SeedLink(model.MealIngredientLink{MealID: 10, IngredientID: 1, Quantity: "2"})
	repo.SeedLink(model.MealIngredientLink{MealID: 11, IngredientID: 1, Quantity: "3.5"})
	repo.SeedLink(model.MealIngredientLink{MealID: 10, IngredientID: 2, Quantity: "1", Unit: "bunch"})
	repo.SeedLink(model.MealIngredientLink{MealID: 11, IngredientID: 2, Quantity: "a few"})
	repo.SeedLink(model.MealIngredientLink{MealID: 11, IngredientID: 3})
	repo.SeedLink(model.MealIngredientLink{MealID: 12, IngredientID: 2, Quantity: "9"})
	return repo
}

func TestBuild(t *testing.T) {
	t.Parallel()

	l, err := Build(context.Background(), winterRepo(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Winter", l.Menu.Name)
	require.Len(t, l.Groups, 3)
	assert.Equal(t, []string{"spice", "veg", Uncategorized},
		[]string{l.Groups[0].Category, l.Groups[1].Category, l.Groups[2].Category})

	salt := l.Groups[0].Items[0]
	assert.Equal(t, []string{"5.5 g"}, salt.Amounts)
	assert.Equal(t, []string{"Soup", "Stew"}, salt.Meals)
	assert.Equal(t, "Salt: 5.5 g", salt.Summary())

	leek := l.Groups[1].Items[0]
	assert.Equal(t, []string{"1 bunch", "a few"}, leek.Amounts, "salad is not on the menu")

	water := l.Groups[2].Items[0]
	assert.Empty(t, water.Amounts)
	assert.Equal(t, "Water", water.Summary())
	assert.Equal(t, 3, l.Len())
}

func TestBuild_PropagatesErrors(t *testing.T) {
	t.Parallel()

	repo := winterRepo()
	repo.Fail("MealIngredients", errors.New("boom"))
	_, err := Build(context.Background(), repo, 1)
	assert.Error(t, err)

	_, err = Build(context.Background(), memrepo.New(), 7)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		qs   []string
		unit string
		want string
	}{
		{[]string{"1", "2"}, "g", "3 g"},
		{[]string{"0.25", "0.5"}, "", "0.75"},
		{[]string{"1", "a pinch"}, "tsp", "1 + a pinch tsp"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, combine(tc.qs, tc.unit))
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	l, err := Build(context.Background(), winterRepo(), 1)
	require.NoError(t, err)
	md := Markdown(l)
	assert.Contains(t, md, "# :shopping_cart: Shopping list: Winter")
	assert.Contains(t, md, "## spice")
	assert.Contains(t, md, "- [ ] Salt: 5.5 g _(Soup, Stew)_")

	empty := Markdown(List{Menu: model.Menu{Name: "Empty"}})
	assert.Contains(t, empty, "Nothing to buy.")
}

func TestMarkdown_EscapesNames(t *testing.T) {
	t.Parallel()

	l := Aggregate(model.Menu{Name: "x"}, []string{"m"}, map[string][]model.MealIngredient{
		"m": {{Ingredient: model.Ingredient{ID: 1, Name: "*bold* <b>"}}},
	})
	md := Markdown(l)
	assert.Contains(t, md, `\*bold\* &lt;b>`)
}

func TestHTML(t *testing.T) {
	t.Parallel()

	l, err := Build(context.Background(), winterRepo(), 1)
	require.NoError(t, err)
	b, err := HTML(l)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Shopping list Winter</title>")
	assert.Contains(t, out, `type="checkbox"`)
	assert.NotContains(t, out, ":shopping_cart:")

	lines, err := ParseHTML(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Contains(t, lines, "Salt: 5.5 g (Soup, Stew)")
}

func TestText(t *testing.T) {
	t.Parallel()

	l, err := Build(context.Background(), winterRepo(), 1)
	require.NoError(t, err)
	out := Text(l, 80)
	assert.Contains(t, out, "spice:\n  Salt: 5.5 g\n")
	assert.Contains(t, out, "veg:\n  Leek: 1 bunch + a few\n")
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	out, err := Terminal("# Winter\n\n- Salt", "notty", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Winter")
	assert.Contains(t, out, "Salt")
}

func TestXLSX(t *testing.T) {
	t.Parallel()

	l, err := Build(context.Background(), winterRepo(), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, XLSX(l, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"category", "ingredient", "amount", "meals"}, rows[0])
	assert.Equal(t, []string{"spice", "Salt", "5.5 g", "Soup, Stew"}, rows[1])
}

func TestParseHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "list items",
			in:   "<ul><li> Salt  5 g </li><li>Leek</li></ul>",
			want: []string{"Salt 5 g", "Leek"},
		},
		{
			name: "table rows",
			in:   "<table><tr><th>name</th></tr><tr><td>Salt</td><td>5</td></tr></table>",
			want: []string{"Salt 5"},
		},
		{
			name: "plain text",
			in:   "<body>Salt\n\nLeek</body>",
			want: []string{"Salt", "Leek"},
		},
	}
	for _, tc := range tests {
		got, err := ParseHTML(strings.NewReader(tc.in))
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}
