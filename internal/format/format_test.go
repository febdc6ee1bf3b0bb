package format

import (
	"bytes"
	"strings"
	"testing"

	"groceries-cli/internal/model"
)

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{}, "yaml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestWriteJSON_Envelope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": model.Menu{ID: 1, Name: "Winter"}}, "", false); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "{\"data\":{\"id\":1,\"name\":\"Winter\"}}\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWriteEDN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		v      any
		pretty bool
		want   string
	}{
		{
			name: "link keys become keywords",
			v:    model.MealIngredientLink{MealID: 3, IngredientID: 4, Quantity: "2"},
			want: "{:ingredient-id 4 :meal-id 3 :quantity \"2\"}\n",
		},
		{
			name: "vector and scalars",
			v:    []any{nil, true, 1.5, "x"},
			want: "[nil true 1.5 \"x\"]\n",
		},
		{
			name: "empty collections",
			v:    map[string]any{"a": []any{}, "b": map[string]any{}},
			want: "{:a [] :b {}}\n",
		},
		{
			name:   "pretty",
			v:      map[string]any{"data": []any{1}},
			pretty: true,
			want:   "{\n  :data [\n    1\n  ]\n}\n",
		},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		if err := WriteEDN(&buf, tc.v, tc.pretty); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := buf.String(); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestWriteTable_List(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	v := map[string]any{"data": []model.Ingredient{
		{ID: 1, Name: "Salt", Category: "spice", Unit: "g"},
		{ID: 2, Name: "Leek"},
	}}
	if err := Write(&buf, v, "table", false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	header := strings.Split(out, "\n")[1]
	for _, col := range []string{"id", "name", "category", "unit"} {
		if !strings.Contains(header, col) {
			t.Fatalf("header %q missing %q", header, col)
		}
	}
	if strings.Index(header, "id") > strings.Index(header, "name") {
		t.Fatalf("id should come before name: %q", header)
	}
	for _, want := range []string{"Salt", "spice", "Leek"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTable_ObjectAndEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteTable(&buf, map[string]any{"data": model.MealIngredient{
		ID: 9, Quantity: "2", Ingredient: model.Ingredient{ID: 1, Name: "Salt"},
	}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "ingredient") || !strings.Contains(out, "Salt") {
		t.Fatalf("unexpected table:\n%s", out)
	}

	buf.Reset()
	if err := WriteTable(&buf, map[string]any{"data": []model.Menu{}}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "(none)" {
		t.Fatalf("got %q", buf.String())
	}
}
