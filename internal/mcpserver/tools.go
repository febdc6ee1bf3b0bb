package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"groceries-cli/internal/api"
	"groceries-cli/internal/attach"
	"groceries-cli/internal/model"
	"groceries-cli/internal/resolve"
	"groceries-cli/internal/shoplist"
)

// ToolInfo describes one tool for GET /tools.
type ToolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
}

func Tools() []ToolInfo {
	return []ToolInfo{
		{Name: "list_menus", Description: "List all menus"},
		{Name: "menu_meals", Description: "Meals on a menu and meals that can still be attached", Params: []string{"menu_id", "filter", "order"}},
		{Name: "attach_meal", Description: "Attach a meal to a menu", Params: []string{"menu_id", "meal_id"}},
		{Name: "create_meal", Description: "Create a meal with ingredients, reusing catalog entries by name", Params: []string{"name", "menu_id", "ingredients"}},
		{Name: "shopping_list", Description: "Build a menu's shopping list", Params: []string{"menu_id", "format"}},
	}
}

type MenuMealsParams struct {
	MenuID int64  `json:"menu_id" description:"Menu id"`
	Filter string `json:"filter,omitempty" description:"Prefix filter applied to attachable meals"`
	Order  string `json:"order,omitempty" description:"name (default) or catalog"`
}

type AttachMealParams struct {
	MenuID int64 `json:"menu_id" description:"Menu id"`
	MealID int64 `json:"meal_id" description:"Meal id"`
}

type CreateMealParams struct {
	Name        string                       `json:"name" description:"Meal name"`
	MenuID      int64                        `json:"menu_id,omitempty" description:"Menu to attach the new meal to"`
	Ingredients []model.IngredientDescriptor `json:"ingredients,omitempty" description:"Ingredient rows (name, quantity, unit, category)"`
}

type ShoppingListParams struct {
	MenuID int64  `json:"menu_id" description:"Menu id"`
	Format string `json:"format,omitempty" description:"markdown (default), text or json"`
}

// extractParams decodes the request arguments into target.
func extractParams(req *protocol.CallToolRequest, target any) error {
	b, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func requireID(name string, v int64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s is required", errInvalidParams, name)
	}
	return nil
}

func (s *Server) handleListMenus(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	menus, err := s.repo.ListMenus(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"menus": menus})
}

func (s *Server) handleMenuMeals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p MenuMealsParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	if err := requireID("menu_id", p.MenuID); err != nil {
		return nil, err
	}
	order, err := attach.ParseOrder(p.Order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	st, err := api.HydrateMenu(ctx, s.repo, p.MenuID)
	if err != nil {
		return nil, err
	}
	v := attach.NewView(st.AllMeals, st.Attached)
	v.Order = order
	return jsonResult(map[string]any{
		"menu":       st.Menu,
		"attached":   v.Attached(),
		"unattached": v.Filter(p.Filter),
	})
}

func (s *Server) handleAttachMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p AttachMealParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	if err := requireID("menu_id", p.MenuID); err != nil {
		return nil, err
	}
	if err := requireID("meal_id", p.MealID); err != nil {
		return nil, err
	}
	if err := s.repo.AttachMealToMenu(ctx, p.MealID, p.MenuID); err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"menu_id": p.MenuID, "meal_id": p.MealID, "attached": true})
}

func (s *Server) handleCreateMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p CreateMealParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	catalog, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	draft := &resolve.MealDraft{Name: p.Name, MenuID: p.MenuID, Rows: p.Ingredients}
	res, err := s.resolver.CreateMeal(ctx, draft, resolve.BuildCatalog(catalog))
	if err != nil {
		if draft.Created() {
			return nil, fmt.Errorf("meal %d was created but not completed: %w", draft.Meal.ID, err)
		}
		return nil, err
	}
	return jsonResult(map[string]any{
		"meal":        draft.Meal,
		"created":     nonNil(res.Created),
		"ingredients": nonNil(res.Links),
		"attached":    draft.Attached,
	})
}

func (s *Server) handleShoppingList(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p ShoppingListParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	if err := requireID("menu_id", p.MenuID); err != nil {
		return nil, err
	}
	l, err := shoplist.Build(ctx, s.repo, p.MenuID)
	if err != nil {
		return nil, err
	}
	switch p.Format {
	case "", "markdown":
		return textResult(shoplist.Markdown(l)), nil
	case "text":
		return textResult(shoplist.Text(l, 0)), nil
	case "json":
		return jsonResult(l)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", errInvalidParams, p.Format)
	}
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
