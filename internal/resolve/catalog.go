package resolve

import (
	"sort"

	"groceries-cli/internal/model"
)

// Catalog is a name -> identity snapshot of the ingredient catalog, keyed by
// model.NormalizeName. It is taken once per form session.
type Catalog map[string]model.Ingredient

// BuildCatalog indexes ingredients by normalized name. When the server holds more than
// one entry for a name, the first one wins so a name always maps to one identity.
func BuildCatalog(xs []model.Ingredient) Catalog {
	c := make(Catalog, len(xs))
	for _, in := range xs {
		k := model.NormalizeName(in.Name)
		if k == "" {
			continue
		}
		if _, ok := c[k]; ok {
			continue
		}
		c[k] = in
	}
	return c
}

// With returns a copy of c that also knows xs. Names c already maps keep their identity.
func (c Catalog) With(xs []model.Ingredient) Catalog {
	out := make(Catalog, len(c)+len(xs))
	for k, in := range c {
		out[k] = in
	}
	for _, in := range xs {
		k := model.NormalizeName(in.Name)
		if _, ok := out[k]; k == "" || ok {
			continue
		}
		out[k] = in
	}
	return out
}

func (c Catalog) Lookup(name string) (model.Ingredient, bool) {
	in, ok := c[model.NormalizeName(name)]
	return in, ok
}

// Names returns the catalog's display names, sorted.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for _, in := range c {
		out = append(out, in.Name)
	}
	sort.Strings(out)
	return out
}

// Ingredients returns the catalog entries sorted by name.
func (c Catalog) Ingredients() []model.Ingredient {
	out := make([]model.Ingredient, 0, len(c))
	for _, in := range c {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
