// Package memrepo is an in-memory api.Repository for tests.
//
// It records every call by method name, keeps request bodies for the batch endpoints
// and can be told to fail a given method.
package memrepo

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"

	"groceries-cli/internal/api"
	"groceries-cli/internal/model"
)

type Repo struct {
	mu sync.Mutex

	nextID int64

	menus       []model.Menu
	meals       []model.Meal
	ingredients []model.Ingredient
	// mealMenu maps meal id -> menu id (a meal sits on at most one menu).
	mealMenu map[int64]int64
	links    []model.MealIngredientLink

	Categories []string
	Units      []string

	calls    map[string]int
	failures map[string]error

	// BatchCreateBodies and BatchAssociateBodies record request payloads in call order.
	BatchCreateBodies    [][]model.NewIngredient
	BatchAssociateBodies [][]model.MealIngredientLink
}

func New() *Repo {
	return &Repo{
		nextID:   100,
		mealMenu: map[int64]int64{},
		calls:    map[string]int{},
		failures: map[string]error{},
	}
}

// Fail makes every later call of method return err. A nil err clears it.
func (r *Repo) Fail(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, method)
		return
	}
	r.failures[method] = err
}

// Calls returns how many times method was invoked (including failed calls).
func (r *Repo) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (r *Repo) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *Repo) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = map[string]int{}
	r.BatchCreateBodies = nil
	r.BatchAssociateBodies = nil
}

// enter must be called with r.mu held.
func (r *Repo) enter(method string) error {
	r.calls[method]++
	return r.failures[method]
}

func (r *Repo) newID() int64 {
	r.nextID++
	return r.nextID
}

func notFound(method, path string) error {
	return &api.Error{Method: method, Path: path, Status: http.StatusNotFound}
}

// Seeding helpers (no call accounting).

func (r *Repo) SeedMenu(id int64, name string) model.Menu {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := model.Menu{ID: id, Name: name}
	r.menus = append(r.menus, m)
	return m
}

func (r *Repo) SeedMeal(id int64, name string, menuID int64) model.Meal {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := model.Meal{ID: id, Name: name}
	r.meals = append(r.meals, m)
	if menuID != 0 {
		r.mealMenu[id] = menuID
	}
	return m
}

func (r *Repo) SeedIngredient(id int64, name, category, unit string) model.Ingredient {
	r.mu.Lock()
	defer r.mu.Unlock()
	in := model.Ingredient{ID: id, Name: name, Category: category, Unit: unit}
	r.ingredients = append(r.ingredients, in)
	return in
}

func (r *Repo) SeedLink(l model.MealIngredientLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, l)
}

// Links returns the stored meal/ingredient joins for mealID.
func (r *Repo) Links(mealID int64) []model.MealIngredientLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MealIngredientLink
	for _, l := range r.links {
		if l.MealID == mealID {
			out = append(out, l)
		}
	}
	return out
}

// Ingredients returns the catalog without counting a call.
func (r *Repo) Ingredients() []model.Ingredient {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ingredients)
}

func (r *Repo) ListMenus(ctx context.Context) ([]model.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListMenus"); err != nil {
		return nil, err
	}
	return append([]model.Menu{}, r.menus...), nil
}

func (r *Repo) GetMenu(ctx context.Context, menuID int64) (model.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetMenu"); err != nil {
		return model.Menu{}, err
	}
	for _, m := range r.menus {
		if m.ID == menuID {
			return m, nil
		}
	}
	return model.Menu{}, notFound(http.MethodGet, fmt.Sprintf("/menus/%d", menuID))
}

func (r *Repo) CreateMenu(ctx context.Context, name string) (model.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateMenu"); err != nil {
		return model.Menu{}, err
	}
	m := model.Menu{ID: r.newID(), Name: name}
	r.menus = append(r.menus, m)
	return m, nil
}

func (r *Repo) DeleteMenu(ctx context.Context, menuID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteMenu"); err != nil {
		return err
	}
	idx := slices.IndexFunc(r.menus, func(m model.Menu) bool { return m.ID == menuID })
	if idx < 0 {
		return notFound(http.MethodDelete, fmt.Sprintf("/menus/%d", menuID))
	}
	r.menus = slices.Delete(r.menus, idx, idx+1)
	for mealID, mid := range r.mealMenu {
		if mid == menuID {
			delete(r.mealMenu, mealID)
		}
	}
	return nil
}

func (r *Repo) MenuMeals(ctx context.Context, menuID int64) ([]model.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("MenuMeals"); err != nil {
		return nil, err
	}
	out := []model.Meal{}
	for _, m := range r.meals {
		if r.mealMenu[m.ID] == menuID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ShoppingList renders a plain-text list; the real server format is opaque.
func (r *Repo) ShoppingList(ctx context.Context, menuID int64) (model.ShoppingList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ShoppingList"); err != nil {
		return model.ShoppingList{}, err
	}
	var lines []string
	for _, m := range r.meals {
		if r.mealMenu[m.ID] != menuID {
			continue
		}
		for _, l := range r.links {
			if l.MealID != m.ID {
				continue
			}
			for _, in := range r.ingredients {
				if in.ID == l.IngredientID {
					lines = append(lines, strings.TrimSpace(in.Name+" "+l.Quantity+" "+l.Unit))
				}
			}
		}
	}
	sort.Strings(lines)
	return model.ShoppingList{
		MenuID:      menuID,
		ContentType: "text/plain; charset=utf-8",
		Filename:    fmt.Sprintf("menu-%d.txt", menuID),
		Body:        []byte(strings.Join(lines, "\n")),
	}, nil
}

func (r *Repo) ListMeals(ctx context.Context) ([]model.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListMeals"); err != nil {
		return nil, err
	}
	return append([]model.Meal{}, r.meals...), nil
}

func (r *Repo) GetMeal(ctx context.Context, mealID int64) (model.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetMeal"); err != nil {
		return model.Meal{}, err
	}
	for _, m := range r.meals {
		if m.ID == mealID {
			return m, nil
		}
	}
	return model.Meal{}, notFound(http.MethodGet, fmt.Sprintf("/meals/%d", mealID))
}

func (r *Repo) CreateMeal(ctx context.Context, name string) (model.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateMeal"); err != nil {
		return model.Meal{}, err
	}
	m := model.Meal{ID: r.newID(), Name: name}
	r.meals = append(r.meals, m)
	return m, nil
}

func (r *Repo) DeleteMeal(ctx context.Context, mealID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteMeal"); err != nil {
		return err
	}
	idx := slices.IndexFunc(r.meals, func(m model.Meal) bool { return m.ID == mealID })
	if idx < 0 {
		return notFound(http.MethodDelete, fmt.Sprintf("/meals/%d", mealID))
	}
	r.meals = slices.Delete(r.meals, idx, idx+1)
	delete(r.mealMenu, mealID)
	r.links = slices.DeleteFunc(r.links, func(l model.MealIngredientLink) bool { return l.MealID == mealID })
	return nil
}

func (r *Repo) AttachMealToMenu(ctx context.Context, mealID, menuID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("AttachMealToMenu"); err != nil {
		return err
	}
	if !slices.ContainsFunc(r.meals, func(m model.Meal) bool { return m.ID == mealID }) {
		return notFound(http.MethodPut, fmt.Sprintf("/meals/%d/menus/%d", mealID, menuID))
	}
	if !slices.ContainsFunc(r.menus, func(m model.Menu) bool { return m.ID == menuID }) {
		return notFound(http.MethodPut, fmt.Sprintf("/meals/%d/menus/%d", mealID, menuID))
	}
	r.mealMenu[mealID] = menuID
	return nil
}

func (r *Repo) DetachMealFromMenus(ctx context.Context, mealID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DetachMealFromMenus"); err != nil {
		return err
	}
	delete(r.mealMenu, mealID)
	return nil
}

func (r *Repo) MealIngredients(ctx context.Context, mealID int64) ([]model.MealIngredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("MealIngredients"); err != nil {
		return nil, err
	}
	out := []model.MealIngredient{}
	for i, l := range r.links {
		if l.MealID != mealID {
			continue
		}
		for _, in := range r.ingredients {
			if in.ID == l.IngredientID {
				out = append(out, model.MealIngredient{ID: int64(i + 1), Quantity: l.Quantity, Unit: l.Unit, Ingredient: in})
			}
		}
	}
	return out, nil
}

func (r *Repo) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListIngredients"); err != nil {
		return nil, err
	}
	return slices.Clone(r.ingredients), nil
}

func (r *Repo) CreateIngredient(ctx context.Context, in model.NewIngredient) (model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateIngredient"); err != nil {
		return model.Ingredient{}, err
	}
	out := model.Ingredient{ID: r.newID(), Name: in.Name, Category: in.Category, Unit: in.Unit}
	r.ingredients = append(r.ingredients, out)
	return out, nil
}

func (r *Repo) CreateIngredientsBatch(ctx context.Context, in []model.NewIngredient) ([]model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BatchCreateBodies = append(r.BatchCreateBodies, slices.Clone(in))
	if err := r.enter("CreateIngredientsBatch"); err != nil {
		return nil, err
	}
	out := make([]model.Ingredient, 0, len(in))
	for _, n := range in {
		ing := model.Ingredient{ID: r.newID(), Name: n.Name, Category: n.Category, Unit: n.Unit}
		r.ingredients = append(r.ingredients, ing)
		out = append(out, ing)
	}
	return out, nil
}

func (r *Repo) IngredientCategories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("IngredientCategories"); err != nil {
		return nil, err
	}
	return slices.Clone(r.Categories), nil
}

func (r *Repo) IngredientUnits(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("IngredientUnits"); err != nil {
		return nil, err
	}
	return slices.Clone(r.Units), nil
}

func (r *Repo) CreateMealIngredient(ctx context.Context, link model.MealIngredientLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateMealIngredient"); err != nil {
		return err
	}
	r.links = append(r.links, link)
	return nil
}

func (r *Repo) CreateMealIngredientsBatch(ctx context.Context, links []model.MealIngredientLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BatchAssociateBodies = append(r.BatchAssociateBodies, slices.Clone(links))
	if err := r.enter("CreateMealIngredientsBatch"); err != nil {
		return err
	}
	r.links = append(r.links, links...)
	return nil
}

func (r *Repo) UpdateMealIngredient(ctx context.Context, link model.MealIngredientLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpdateMealIngredient"); err != nil {
		return err
	}
	for i := range r.links {
		if r.links[i].MealID == link.MealID && r.links[i].IngredientID == link.IngredientID {
			r.links[i].Quantity = link.Quantity
			r.links[i].Unit = link.Unit
			return nil
		}
	}
	return notFound(http.MethodPut, "/meals-ingredients")
}

var _ api.Repository = (*Repo)(nil)
