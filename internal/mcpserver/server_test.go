package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groceries-cli/internal/memrepo"
	"groceries-cli/internal/model"
)

func winter() *memrepo.Repo {
	repo := memrepo.New()
	repo.SeedMenu(1, "Winter")
	repo.SeedMeal(10, "A", 1)
	repo.SeedMeal(11, "B", 1)
	repo.SeedMeal(12, "C", 0)
	repo.SeedIngredient(1, "Salt", "spice", "g")
	return repo
}

func call(t *testing.T, s *Server, name string, args map[string]interface{}) string {
	t.Helper()
	res, err := s.Call(context.Background(), &protocol.CallToolRequest{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(protocol.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestMenuMeals(t *testing.T) {
	t.Parallel()

	s := New(winter(), nil)
	out := call(t, s, "menu_meals", map[string]interface{}{"menu_id": 1})

	var got struct {
		Attached   []model.Meal `json:"attached"`
		Unattached []model.Meal `json:"unattached"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Attached, 2)
	assert.Equal(t, []model.Meal{{ID: 12, Name: "C"}}, got.Unattached)
}

func TestAttachMeal(t *testing.T) {
	t.Parallel()

	repo := winter()
	s := New(repo, nil)
	call(t, s, "attach_meal", map[string]interface{}{"menu_id": 1, "meal_id": 12})
	assert.Equal(t, 1, repo.Calls("AttachMealToMenu"))

	on, err := repo.MenuMeals(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, on, 3)
}

func TestCreateMeal(t *testing.T) {
	t.Parallel()

	repo := winter()
	s := New(repo, nil)
	out := call(t, s, "create_meal", map[string]interface{}{
		"name":    "Soup",
		"menu_id": 1,
		"ingredients": []interface{}{
			map[string]interface{}{"name": "salt", "quantity": "1tsp"},
			map[string]interface{}{"name": "NewHerb", "quantity": "2g"},
		},
	})
	assert.Contains(t, out, `"attached":true`)
	assert.Equal(t, 1, repo.Calls("CreateIngredientsBatch"))
	require.Len(t, repo.BatchCreateBodies, 1)
	assert.Equal(t, []model.NewIngredient{{Name: "NewHerb"}}, repo.BatchCreateBodies[0])
	assert.Equal(t, 1, repo.Calls("CreateMealIngredientsBatch"))
}

func TestShoppingList(t *testing.T) {
	t.Parallel()

	repo := winter()
	repo.SeedLink(model.MealIngredientLink{MealID: 10, IngredientID: 1, Quantity: "2"})
	s := New(repo, nil)

	out := call(t, s, "shopping_list", map[string]interface{}{"menu_id": 1})
	assert.Contains(t, out, "Salt: 2 g")

	_, err := s.Call(context.Background(), &protocol.CallToolRequest{
		Name:      "shopping_list",
		Arguments: map[string]interface{}{"menu_id": 1, "format": "pdf"},
	})
	assert.ErrorIs(t, err, errInvalidParams)
}

func TestHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(New(winter(), nil).Handler())
	t.Cleanup(srv.Close)

	post := func(body string) *http.Response {
		resp, err := http.Post(srv.URL+"/", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := post(`{"name":"list_menus","arguments":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	assert.Contains(t, res.Content[0].Text, "Winter")

	assert.Equal(t, http.StatusNotFound, post(`{"name":"nope"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(`{"name":"attach_meal","arguments":{"menu_id":1}}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, post(`{"name":"attach_meal","arguments":{"menu_id":9,"meal_id":10}}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(`{`).StatusCode)

	get, err := http.Get(srv.URL + "/tools")
	require.NoError(t, err)
	defer get.Body.Close()
	var tools struct {
		Tools []ToolInfo `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&tools))
	assert.Len(t, tools.Tools, 5)

	getRoot, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer getRoot.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getRoot.StatusCode)
}
