package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Menu struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (m Menu) ItemID() int64       { return m.ID }
func (m Menu) DisplayName() string { return m.Name }

type Meal struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (m Meal) ItemID() int64       { return m.ID }
func (m Meal) DisplayName() string { return m.Name }

// Ingredient is a canonical catalog entry. Its name is the natural key the client
// uses to decide between reusing and creating an entry.
type Ingredient struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

func (i Ingredient) ItemID() int64       { return i.ID }
func (i Ingredient) DisplayName() string { return i.Name }

// MealIngredient is one row of a meal's ingredient list as returned by the API.
// Quantity and Unit belong to the (meal, ingredient) pair.
type MealIngredient struct {
	ID         int64      `json:"id"`
	Quantity   string     `json:"quantity,omitempty"`
	Unit       string     `json:"unit,omitempty"`
	Ingredient Ingredient `json:"ingredient"`
}

func (mi MealIngredient) ItemID() int64       { return mi.Ingredient.ID }
func (mi MealIngredient) DisplayName() string { return mi.Ingredient.Name }

// EffectiveUnit prefers the per-use unit and falls back to the catalog unit.
func (mi MealIngredient) EffectiveUnit() string {
	if u := strings.TrimSpace(mi.Unit); u != "" {
		return u
	}
	return strings.TrimSpace(mi.Ingredient.Unit)
}

func (mi *MealIngredient) UnmarshalJSON(b []byte) error {
	type plain MealIngredient
	var v struct {
		plain
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	q, err := decodeQuantity(v.Quantity)
	if err != nil {
		return err
	}
	*mi = MealIngredient(v.plain)
	mi.Quantity = q
	return nil
}

// MealIngredientLink is the quantified join between a meal and an ingredient.
type MealIngredientLink struct {
	MealID       int64  `json:"meal_id"`
	IngredientID int64  `json:"ingredient_id"`
	Quantity     string `json:"quantity,omitempty"`
	Unit         string `json:"unit,omitempty"`
}

func (l *MealIngredientLink) UnmarshalJSON(b []byte) error {
	type plain MealIngredientLink
	var v struct {
		plain
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	q, err := decodeQuantity(v.Quantity)
	if err != nil {
		return err
	}
	*l = MealIngredientLink(v.plain)
	l.Quantity = q
	return nil
}

// decodeQuantity accepts a quantity sent as a JSON string or number. Numbers keep
// their literal text.
func decodeQuantity(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("quantity: %w", err)
	}
	return n.String(), nil
}

// IngredientDescriptor is one partially filled ingredient row of a form.
type IngredientDescriptor struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Category string `json:"category,omitempty"`
}

// Blank reports whether the row carries no user input at all.
func (d IngredientDescriptor) Blank() bool {
	return strings.TrimSpace(d.Name) == "" &&
		strings.TrimSpace(d.Quantity) == "" &&
		strings.TrimSpace(d.Unit) == "" &&
		strings.TrimSpace(d.Category) == ""
}

// NewIngredient is the body element of a catalog create call.
// It intentionally has no quantity: quantity is never a catalog attribute.
type NewIngredient struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// ShoppingList is the opaque document served for a menu.
type ShoppingList struct {
	MenuID      int64  `json:"menuId"`
	ContentType string `json:"contentType"`
	Filename    string `json:"filename,omitempty"`
	Body        []byte `json:"-"`
}

// NormalizeName is the key used to compare user-typed names against the catalog.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
