// Package shoplist builds a menu's shopping list from its meals and renders it as
// markdown, HTML, XLSX or plain text.
package shoplist

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"groceries-cli/internal/model"

	"golang.org/x/sync/errgroup"
)

// Uncategorized is the group label for ingredients without a category.
const Uncategorized = "other"

// Source is what Build reads from.
type Source interface {
	GetMenu(ctx context.Context, menuID int64) (model.Menu, error)
	MenuMeals(ctx context.Context, menuID int64) ([]model.Meal, error)
	MealIngredients(ctx context.Context, mealID int64) ([]model.MealIngredient, error)
}

type List struct {
	Menu   model.Menu `json:"menu"`
	Groups []Group    `json:"groups"`
}

type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// Item is one ingredient across all meals of the menu.
type Item struct {
	Ingredient model.Ingredient `json:"ingredient"`
	// Amounts holds one entry per unit, e.g. ["300 g", "2"].
	Amounts []string `json:"amounts,omitempty"`
	Meals   []string `json:"meals"`
}

// Summary is "Salt: 6 g" or just "Salt".
func (it Item) Summary() string {
	if len(it.Amounts) == 0 {
		return it.Ingredient.Name
	}
	return it.Ingredient.Name + ": " + strings.Join(it.Amounts, " + ")
}

// Len counts items across groups.
func (l List) Len() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Items)
	}
	return n
}

const fetchLimit = 4

// Build fetches the menu, its meals and every meal's ingredients. Ingredient lists are
// fetched concurrently and joined before aggregation.
func Build(ctx context.Context, src Source, menuID int64) (List, error) {
	menu, err := src.GetMenu(ctx, menuID)
	if err != nil {
		return List{}, err
	}
	meals, err := src.MenuMeals(ctx, menuID)
	if err != nil {
		return List{}, err
	}

	uses := make([][]model.MealIngredient, len(meals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, m := range meals {
		g.Go(func() error {
			xs, err := src.MealIngredients(gctx, m.ID)
			uses[i] = xs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return List{}, err
	}

	byMeal := make(map[string][]model.MealIngredient, len(meals))
	order := make([]string, 0, len(meals))
	for i, m := range meals {
		if _, ok := byMeal[m.Name]; !ok {
			order = append(order, m.Name)
		}
		byMeal[m.Name] = append(byMeal[m.Name], uses[i]...)
	}
	return Aggregate(menu, order, byMeal), nil
}

type acc struct {
	item    Item
	units   []string
	amounts map[string][]string
}

// Aggregate merges ingredient uses by ingredient identity. Quantities that share a unit
// are summed when they are all numbers and listed one by one otherwise.
func Aggregate(menu model.Menu, mealOrder []string, byMeal map[string][]model.MealIngredient) List {
	items := map[int64]*acc{}
	var ids []int64
	for _, meal := range mealOrder {
		for _, mi := range byMeal[meal] {
			a := items[mi.Ingredient.ID]
			if a == nil {
				a = &acc{item: Item{Ingredient: mi.Ingredient}, amounts: map[string][]string{}}
				items[mi.Ingredient.ID] = a
				ids = append(ids, mi.Ingredient.ID)
			}
			if n := len(a.item.Meals); n == 0 || a.item.Meals[n-1] != meal {
				a.item.Meals = append(a.item.Meals, meal)
			}
			q := strings.TrimSpace(mi.Quantity)
			if q == "" {
				continue
			}
			u := mi.EffectiveUnit()
			if _, ok := a.amounts[u]; !ok {
				a.units = append(a.units, u)
			}
			a.amounts[u] = append(a.amounts[u], q)
		}
	}

	groups := map[string]*Group{}
	for _, id := range ids {
		a := items[id]
		for _, u := range a.units {
			a.item.Amounts = append(a.item.Amounts, combine(a.amounts[u], u))
		}
		cat := strings.TrimSpace(a.item.Ingredient.Category)
		if cat == "" {
			cat = Uncategorized
		}
		g := groups[cat]
		if g == nil {
			g = &Group{Category: cat}
			groups[cat] = g
		}
		g.Items = append(g.Items, a.item)
	}

	l := List{Menu: menu, Groups: make([]Group, 0, len(groups))}
	for _, g := range groups {
		sort.SliceStable(g.Items, func(i, j int) bool {
			return strings.ToLower(g.Items[i].Ingredient.Name) < strings.ToLower(g.Items[j].Ingredient.Name)
		})
		l.Groups = append(l.Groups, *g)
	}
	sort.Slice(l.Groups, func(i, j int) bool {
		a, b := l.Groups[i].Category, l.Groups[j].Category
		if (a == Uncategorized) != (b == Uncategorized) {
			return b == Uncategorized
		}
		return a < b
	})
	return l
}

func combine(qs []string, unit string) string {
	sum := 0.0
	numeric := true
	for _, q := range qs {
		f, err := strconv.ParseFloat(q, 64)
		if err != nil {
			numeric = false
			break
		}
		sum += f
	}
	var s string
	if numeric {
		s = strconv.FormatFloat(sum, 'f', -1, 64)
	} else {
		s = strings.Join(qs, " + ")
	}
	if unit != "" {
		s += " " + unit
	}
	return s
}
