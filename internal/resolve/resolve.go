// Package resolve turns user-entered ingredient rows into catalog identities and
// persists the quantified meal/ingredient joins.
package resolve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"groceries-cli/internal/model"
)

// Repository is the slice of the API the resolver writes through.
type Repository interface {
	CreateMeal(ctx context.Context, name string) (model.Meal, error)
	AttachMealToMenu(ctx context.Context, mealID, menuID int64) error
	CreateIngredientsBatch(ctx context.Context, in []model.NewIngredient) ([]model.Ingredient, error)
	CreateMealIngredientsBatch(ctx context.Context, links []model.MealIngredientLink) error
}

type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

func New(repo Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolved is a form row paired with its catalog identity.
type Resolved struct {
	Descriptor model.IngredientDescriptor
	Ingredient model.Ingredient
}

// Partitioned splits rows by whether the catalog already knows the name.
type Partitioned struct {
	Existing []Resolved
	New      []model.IngredientDescriptor
}

// Partition drops rows without any input, rejects rows that have data but no name,
// and splits the rest into existing and new.
func Partition(descriptors []model.IngredientDescriptor, catalog Catalog) (Partitioned, error) {
	var p Partitioned
	for i, d := range descriptors {
		if d.Blank() {
			continue
		}
		if strings.TrimSpace(d.Name) == "" {
			return Partitioned{}, fmt.Errorf("row %d: %w", i+1, ErrBlankName)
		}
		if in, ok := catalog.Lookup(d.Name); ok {
			p.Existing = append(p.Existing, Resolved{Descriptor: d, Ingredient: in})
			continue
		}
		p.New = append(p.New, d)
	}
	return p, nil
}

// NewIngredients builds the batch-create body for new rows. Rows that share a name are
// sent once; quantity is never part of the body.
func NewIngredients(rows []model.IngredientDescriptor) []model.NewIngredient {
	seen := map[string]bool{}
	out := make([]model.NewIngredient, 0, len(rows))
	for _, d := range rows {
		k := model.NormalizeName(d.Name)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, model.NewIngredient{
			Name:     strings.TrimSpace(d.Name),
			Category: strings.TrimSpace(d.Category),
			Unit:     strings.TrimSpace(d.Unit),
		})
	}
	return out
}

// Result describes what a successful ResolveAndPersist wrote.
type Result struct {
	Created []model.Ingredient
	Links   []model.MealIngredientLink
}

// ResolveAndPersist associates every row with the meal parentID, creating catalog
// entries for names the catalog does not know.
//
// At most one batch-create call is made (none when every name is known) and, only if
// it succeeds, exactly one batch-associate call with all rows. descriptors is never
// modified, so a caller can keep its form state and retry.
//
// The operation is not idempotent: a retry after a failed associate call would create
// the new names again. Callers must refresh catalog (e.g. add Result.Created or refetch
// it) before retrying.
func (r *Resolver) ResolveAndPersist(ctx context.Context, parentID int64, descriptors []model.IngredientDescriptor, catalog Catalog) (Result, error) {
	p, err := Partition(descriptors, catalog)
	if err != nil {
		return Result{}, err
	}
	if len(p.Existing) == 0 && len(p.New) == 0 {
		return Result{}, nil
	}

	resolved := make([]Resolved, 0, len(p.Existing)+len(p.New))
	resolved = append(resolved, p.Existing...)

	var created []model.Ingredient
	if len(p.New) > 0 {
		body := NewIngredients(p.New)
		r.logger.Debug("creating ingredients", "meal_id", parentID, "count", len(body))
		created, err = r.repo.CreateIngredientsBatch(ctx, body)
		if err != nil {
			return Result{}, &StepError{Step: StepCreateIngredients, Err: err}
		}
		byName, err := matchCreated(body, created)
		if err != nil {
			return Result{}, &StepError{Step: StepCreateIngredients, Err: err}
		}
		for _, d := range p.New {
			resolved = append(resolved, Resolved{Descriptor: d, Ingredient: byName[model.NormalizeName(d.Name)]})
		}
	}

	links := make([]model.MealIngredientLink, 0, len(resolved))
	for _, rs := range resolved {
		links = append(links, model.MealIngredientLink{
			MealID:       parentID,
			IngredientID: rs.Ingredient.ID,
			Quantity:     strings.TrimSpace(rs.Descriptor.Quantity),
			Unit:         strings.TrimSpace(rs.Descriptor.Unit),
		})
	}
	if err := r.repo.CreateMealIngredientsBatch(ctx, links); err != nil {
		return Result{Created: created}, &StepError{Step: StepAssociate, Err: err}
	}
	return Result{Created: created, Links: links}, nil
}

// matchCreated maps each sent name to the identity the server returned for it. Names
// are matched when the response echoes any of them; only a same-length response in
// which no name survived falls back to positional matching. An identity handed to two
// names is inconsistent.
func matchCreated(sent []model.NewIngredient, got []model.Ingredient) (map[string]model.Ingredient, error) {
	returned := make(map[string]model.Ingredient, len(got))
	for _, in := range got {
		if in.ID != 0 {
			returned[model.NormalizeName(in.Name)] = in
		}
	}
	named := 0
	for _, s := range sent {
		if _, ok := returned[model.NormalizeName(s.Name)]; ok {
			named++
		}
	}
	positional := named == 0 && len(got) == len(sent)

	out := make(map[string]model.Ingredient, len(sent))
	owner := make(map[int64]string, len(sent))
	for i, s := range sent {
		k := model.NormalizeName(s.Name)
		in, ok := returned[k]
		if positional {
			in, ok = got[i], got[i].ID != 0
		}
		if !ok {
			return nil, fmt.Errorf("%w: no identity returned for %q", ErrInconsistent, s.Name)
		}
		if prev, dup := owner[in.ID]; dup {
			return nil, fmt.Errorf("%w: %q and %q were both given ingredient %d", ErrInconsistent, prev, s.Name, in.ID)
		}
		owner[in.ID] = s.Name
		out[k] = in
	}
	return out, nil
}
