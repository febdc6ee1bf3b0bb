package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewIngredient_HasNoQuantityField(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(NewIngredient{Name: "Salt", Category: "spice", Unit: "g"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "quantity") {
		t.Fatalf("expected no quantity key, got %s", b)
	}
}

func TestMealIngredient_EffectiveUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   MealIngredient
		want string
	}{
		{name: "per-use unit wins", in: MealIngredient{Unit: "tsp", Ingredient: Ingredient{Unit: "g"}}, want: "tsp"},
		{name: "falls back to catalog", in: MealIngredient{Ingredient: Ingredient{Unit: "g"}}, want: "g"},
		{name: "blank", in: MealIngredient{Unit: "  "}, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.in.EffectiveUnit(); got != tt.want {
				t.Fatalf("EffectiveUnit() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIngredientDescriptor_Blank(t *testing.T) {
	t.Parallel()

	if !(IngredientDescriptor{Name: " "}).Blank() {
		t.Fatalf("expected whitespace-only row to be blank")
	}
	if (IngredientDescriptor{Quantity: "2"}).Blank() {
		t.Fatalf("expected row with quantity to be non-blank")
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	if got := NormalizeName("  Black Pepper "); got != "black pepper" {
		t.Fatalf("NormalizeName = %q", got)
	}
}

func TestQuantity_DecodesStringOrNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "string", in: `{"id":1,"quantity":"2 tbsp","ingredient":{"id":3,"name":"Oil"}}`, want: "2 tbsp"},
		{name: "integer", in: `{"id":1,"quantity":2,"ingredient":{"id":3,"name":"Oil"}}`, want: "2"},
		{name: "decimal", in: `{"id":1,"quantity":0.25,"ingredient":{"id":3,"name":"Oil"}}`, want: "0.25"},
		{name: "null", in: `{"id":1,"quantity":null,"ingredient":{"id":3,"name":"Oil"}}`, want: ""},
		{name: "missing", in: `{"id":1,"ingredient":{"id":3,"name":"Oil"}}`, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var mi MealIngredient
			if err := json.Unmarshal([]byte(tt.in), &mi); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if mi.Quantity != tt.want || mi.Ingredient.Name != "Oil" || mi.ID != 1 {
				t.Fatalf("got %+v, want quantity %q", mi, tt.want)
			}
		})
	}
}

func TestMealIngredientLink_DecodesNumericQuantity(t *testing.T) {
	t.Parallel()

	var links []MealIngredientLink
	in := `[{"meal_id":1,"ingredient_id":2,"quantity":1.5,"unit":"kg"},{"meal_id":1,"ingredient_id":3,"quantity":"a pinch"}]`
	if err := json.Unmarshal([]byte(in), &links); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if links[0].Quantity != "1.5" || links[0].Unit != "kg" || links[0].IngredientID != 2 {
		t.Fatalf("links[0] = %+v", links[0])
	}
	if links[1].Quantity != "a pinch" {
		t.Fatalf("links[1] = %+v", links[1])
	}
	if err := json.Unmarshal([]byte(`{"quantity":true}`), &links[0]); err == nil {
		t.Fatalf("expected a boolean quantity to be rejected")
	}
}
