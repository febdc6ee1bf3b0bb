package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"groceries-cli/internal/apitest"
	"groceries-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// newEnv starts an API server and isolates config/env for one test.
func newEnv(t *testing.T) (*apitest.Server, func(args ...string) ([]byte, []byte, error)) {
	t.Helper()
	t.Setenv("GROCERIES_CONFIG_DIR", t.TempDir())
	t.Setenv("GROCERIES_API", "")
	t.Setenv("GROCERIES_FORMAT", "")

	srv := apitest.New(t)
	run := func(args ...string) ([]byte, []byte, error) {
		return runCLI(t, append([]string{"--api", srv.BaseURL()}, args...))
	}
	return srv, run
}

func decodeData(t *testing.T, out []byte, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &env), "stdout: %s", out)
	require.NoError(t, json.Unmarshal(env.Data, v), "data: %s", env.Data)
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func names(ms []model.Meal) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}

type menuMeals struct {
	Menu       model.Menu   `json:"menu"`
	Attached   []model.Meal `json:"attached"`
	Unattached []model.Meal `json:"unattached"`
}

func winter(t *testing.T, srv *apitest.Server) (model.Menu, model.Meal, model.Meal, model.Meal) {
	t.Helper()
	menu := srv.SeedMenu(t, "Winter")
	a := srv.SeedMeal(t, "A", menu.ID)
	b := srv.SeedMeal(t, "B", menu.ID)
	c := srv.SeedMeal(t, "C", 0)
	srv.ResetCalls()
	return menu, a, b, c
}

func TestMenusAttach_SingleWriteAndUpdatedLists(t *testing.T) {
	srv, run := newEnv(t)
	menu, _, _, c := winter(t, srv)

	out, stderr, err := run("menus", "attach", id(menu.ID), id(c.ID))
	require.NoError(t, err, "stderr: %s", stderr)

	var got menuMeals
	decodeData(t, out, &got)
	assert.Equal(t, "Winter", got.Menu.Name)
	assert.Equal(t, []string{"A", "B", "C"}, names(got.Attached))
	assert.Empty(t, got.Unattached)

	writes := srv.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "PUT /meals/"+id(c.ID)+"/menus/"+id(menu.ID), writes[0].String())
}

func TestMenusAttach_AlreadyAttachedMakesNoWrite(t *testing.T) {
	srv, run := newEnv(t)
	menu, a, _, _ := winter(t, srv)

	_, stderr, err := run("menus", "attach", id(menu.ID), id(a.ID))
	require.Error(t, err)
	assert.Contains(t, string(stderr), "already attached")
	assert.Empty(t, srv.Writes())
}

func TestMenusAttach_UnknownMeal(t *testing.T) {
	srv, run := newEnv(t)
	menu, _, _, _ := winter(t, srv)

	_, stderr, err := run("menus", "attach", id(menu.ID), "999")
	require.Error(t, err)
	assert.Contains(t, string(stderr), "meal not found: 999")
	assert.Empty(t, srv.Writes())
}

func TestMenusAttach_ServerFailure(t *testing.T) {
	srv, run := newEnv(t)
	menu, _, _, c := winter(t, srv)
	srv.Fail("PUT /meals/"+id(c.ID)+"/menus/"+id(menu.ID), 500)

	_, _, err := run("menus", "attach", id(menu.ID), id(c.ID))
	require.Error(t, err)

	srv.Fail("PUT /meals/"+id(c.ID)+"/menus/"+id(menu.ID), 0)
	out, _, err := run("menus", "meals", id(menu.ID))
	require.NoError(t, err)
	var got menuMeals
	decodeData(t, out, &got)
	assert.Equal(t, []string{"C"}, names(got.Unattached))
}

func TestMenusMeals_FilterAndOrder(t *testing.T) {
	srv, run := newEnv(t)
	menu := srv.SeedMenu(t, "Week")
	srv.SeedMeal(t, "Chili", 0)
	srv.SeedMeal(t, "Beef stew", 0)
	srv.SeedMeal(t, "cheese toast", 0)
	srv.SeedMeal(t, "Pasta", menu.ID)

	out, _, err := run("menus", "meals", id(menu.ID), "--unattached")
	require.NoError(t, err)
	var all []model.Meal
	decodeData(t, out, &all)
	assert.Equal(t, []string{"Beef stew", "Chili", "cheese toast"}, names(all))

	out, _, err = run("menus", "meals", id(menu.ID), "--unattached", "--filter", "CH")
	require.NoError(t, err)
	var filtered []model.Meal
	decodeData(t, out, &filtered)
	assert.Equal(t, []string{"Chili", "cheese toast"}, names(filtered))

	out, _, err = run("menus", "meals", id(menu.ID), "--unattached", "--order", "catalog")
	require.NoError(t, err)
	var catalog []model.Meal
	decodeData(t, out, &catalog)
	assert.Equal(t, []string{"Chili", "Beef stew", "cheese toast"}, names(catalog))

	_, _, err = run("menus", "meals", id(menu.ID), "--order", "random")
	require.Error(t, err)
}

func TestMenusMeals_UnknownMenu(t *testing.T) {
	_, run := newEnv(t)

	_, stderr, err := run("menus", "meals", "42")
	require.Error(t, err)
	assert.Contains(t, string(stderr), "menu not found: 42")
}

func TestMenusCreateAndList(t *testing.T) {
	_, run := newEnv(t)

	out, _, err := run("menus", "create", "--name", "Winter", "--name", " ", "--name", "Summer")
	require.NoError(t, err)
	var created []model.Menu
	decodeData(t, out, &created)
	require.Len(t, created, 2)
	assert.Equal(t, "Summer", created[1].Name)

	out, _, err = run("menus", "list")
	require.NoError(t, err)
	var menus []model.Menu
	decodeData(t, out, &menus)
	assert.Len(t, menus, 2)

	_, _, err = run("menus", "create", "--name", "  ")
	require.Error(t, err)
}

func TestMenusDelete_RequiresYesWithoutTerminal(t *testing.T) {
	srv, run := newEnv(t)
	menu := srv.SeedMenu(t, "Winter")
	srv.ResetCalls()

	_, stderr, err := run("menus", "delete", id(menu.ID))
	require.Error(t, err)
	assert.Contains(t, string(stderr), "--yes")
	assert.Empty(t, srv.Writes())

	_, _, err = run("menus", "delete", id(menu.ID), "--yes")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.CallCount("DELETE /menus/"+id(menu.ID)))
}

func TestMealsCreate_ReusesCatalogByName(t *testing.T) {
	srv, run := newEnv(t)
	menu := srv.SeedMenu(t, "Winter")
	salt := srv.SeedIngredient(t, "Salt", "spice", "g")
	srv.ResetCalls()

	out, stderr, err := run("meals", "create",
		"--name", "Soup",
		"--menu", id(menu.ID),
		"--ingredient", "name=salt,qty=1,unit=tsp",
		"--ingredient", "name=NewHerb,qty=2,category=herbs",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	var got struct {
		Meal    model.Meal                 `json:"meal"`
		Created []model.Ingredient         `json:"createdIngredients"`
		Links   []model.MealIngredientLink `json:"ingredients"`
	}
	decodeData(t, out, &got)
	assert.Equal(t, "Soup", got.Meal.Name)
	require.Len(t, got.Created, 1)
	assert.Equal(t, "NewHerb", got.Created[0].Name)
	require.Len(t, got.Links, 2)
	assert.Equal(t, salt.ID, got.Links[0].IngredientID)
	assert.Equal(t, "tsp", got.Links[0].Unit)

	assert.Equal(t, 1, srv.CallCount("POST /meals"))
	assert.Equal(t, 1, srv.CallCount("POST /ingredients/batch"))
	assert.Equal(t, 1, srv.CallCount("POST /meals-ingredients-batch"))
	assert.Equal(t, 1, srv.CallCount("PUT /meals/"+id(got.Meal.ID)+"/menus/"+id(menu.ID)))

	for _, c := range srv.Calls() {
		if c.String() == "POST /ingredients/batch" {
			assert.NotContains(t, c.Body, "salt")
			assert.NotContains(t, c.Body, "quantity")
		}
	}
}

func TestMealsCreate_ValidationBeforeWrites(t *testing.T) {
	srv, run := newEnv(t)

	_, _, err := run("meals", "create", "--name", "Soup", "--ingredient", "qty=1")
	require.Error(t, err)
	assert.Empty(t, srv.Writes())

	_, _, err = run("meals", "create", "--name", "Soup", "--ingredient", "name=Salt,colour=red")
	require.Error(t, err)

	_, _, err = run("meals", "create", "--name", "  ")
	require.Error(t, err)
	assert.Empty(t, srv.Writes())
}

func TestMealsCreate_PartialFailureNamesTheMeal(t *testing.T) {
	srv, run := newEnv(t)
	srv.Fail("POST /ingredients/batch", 500)

	_, stderr, err := run("meals", "create", "--name", "Soup", "--ingredient", "Garlic")
	require.Error(t, err)
	assert.Contains(t, string(stderr), "was created but")
	assert.Equal(t, 0, srv.CallCount("POST /meals-ingredients-batch"))
}

func TestMealsSetQuantity(t *testing.T) {
	srv, run := newEnv(t)
	meal := srv.SeedMeal(t, "Soup", 0)
	salt := srv.SeedIngredient(t, "Salt", "spice", "g")
	srv.SeedLink(t, model.MealIngredientLink{MealID: meal.ID, IngredientID: salt.ID, Quantity: "1"})

	_, _, err := run("meals", "set-quantity", id(meal.ID), id(salt.ID), "--quantity", "3", "--unit", "tsp")
	require.NoError(t, err)

	out, _, err := run("meals", "ingredients", id(meal.ID))
	require.NoError(t, err)
	var rows []model.MealIngredient
	decodeData(t, out, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].Quantity)
	assert.Equal(t, "tsp", rows[0].EffectiveUnit())
}

func TestIngredientsListFilter(t *testing.T) {
	srv, run := newEnv(t)
	srv.SeedIngredient(t, "Chicken", "meat", "g")
	srv.SeedIngredient(t, "Beef", "meat", "g")
	srv.SeedIngredient(t, "Cheese", "dairy", "g")

	out, _, err := run("ingredients", "list", "--filter", "ch")
	require.NoError(t, err)
	var got []model.Ingredient
	decodeData(t, out, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "Cheese", got[0].Name)
	assert.Equal(t, "Chicken", got[1].Name)

	out, _, err = run("ingredients", "categories")
	require.NoError(t, err)
	var cats []string
	decodeData(t, out, &cats)
	assert.ElementsMatch(t, []string{"dairy", "meat"}, cats)
}

func TestShoppingList(t *testing.T) {
	srv, run := newEnv(t)
	menu := srv.SeedMenu(t, "Winter")
	a := srv.SeedMeal(t, "A", menu.ID)
	b := srv.SeedMeal(t, "B", menu.ID)
	salt := srv.SeedIngredient(t, "Salt", "spice", "g")
	srv.SeedLink(t, model.MealIngredientLink{MealID: a.ID, IngredientID: salt.ID, Quantity: "2"})
	srv.SeedLink(t, model.MealIngredientLink{MealID: b.ID, IngredientID: salt.ID, Quantity: "3.5"})

	out, _, err := run("shopping-list", "build", id(menu.ID))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Salt: 5.5 g")

	out, _, err = run("shopping-list", "download", id(menu.ID), "--text")
	require.NoError(t, err)
	var got struct {
		Lines []string `json:"lines"`
	}
	decodeData(t, out, &got)
	assert.NotEmpty(t, got.Lines)

	path := filepath.Join(t.TempDir(), "list.xlsx")
	_, stderr, err := run("shopping-list", "build", id(menu.ID), "--as", "xlsx", "--out", path)
	require.NoError(t, err, "stderr: %s", stderr)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, st.Size())

	_, _, err = run("shopping-list", "build", id(menu.ID), "--as", "xlsx")
	require.Error(t, err)
}

func TestConfigSetAndPrecedence(t *testing.T) {
	srv, _ := newEnv(t)
	srv.SeedMenu(t, "Winter")

	_, _, err := runCLI(t, []string{"config", "set", "apiBaseURL", srv.BaseURL()})
	require.NoError(t, err)
	_, _, err = runCLI(t, []string{"config", "set", "format", "table"})
	require.NoError(t, err)

	out, _, err := runCLI(t, []string{"menus", "list"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Winter")
	assert.False(t, json.Valid(out))

	out, _, err = runCLI(t, []string{"--format", "json", "menus", "list"})
	require.NoError(t, err)
	assert.True(t, json.Valid(out))

	_, _, err = runCLI(t, []string{"config", "set", "format", "yaml"})
	require.Error(t, err)
	_, _, err = runCLI(t, []string{"config", "set", "nope", "x"})
	require.Error(t, err)
}

func TestParseIngredientSpec(t *testing.T) {
	t.Parallel()

	d, err := parseIngredientSpec("name=Olive oil, qty=2, unit=tbsp, category=pantry")
	require.NoError(t, err)
	assert.Equal(t, model.IngredientDescriptor{Name: "Olive oil", Quantity: "2", Unit: "tbsp", Category: "pantry"}, d)

	d, err = parseIngredientSpec("Garlic")
	require.NoError(t, err)
	assert.Equal(t, "Garlic", d.Name)

	_, err = parseIngredientSpec("name=Salt,oops")
	require.Error(t, err)
	_, err = parseIngredientSpec("")
	require.Error(t, err)
}
