package resolve

import (
	"context"
	"errors"
	"testing"

	"groceries-cli/internal/memrepo"
	"groceries-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepo() *memrepo.Repo {
	repo := memrepo.New()
	repo.SeedIngredient(1, "Salt", "spice", "g")
	repo.SeedIngredient(2, "Pepper", "spice", "g")
	return repo
}

func TestPartition(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog([]model.Ingredient{{ID: 1, Name: "Salt"}})
	p, err := Partition([]model.IngredientDescriptor{
		{Name: "salt ", Quantity: "1"},
		{Name: "NewHerb", Quantity: "2g"},
		{},
	}, cat)
	require.NoError(t, err)
	require.Len(t, p.Existing, 1)
	assert.Equal(t, int64(1), p.Existing[0].Ingredient.ID)
	assert.Equal(t, "1", p.Existing[0].Descriptor.Quantity)
	require.Len(t, p.New, 1)
	assert.Equal(t, "NewHerb", p.New[0].Name)
}

func TestPartition_RejectsRowWithoutName(t *testing.T) {
	t.Parallel()

	_, err := Partition([]model.IngredientDescriptor{{Quantity: "2"}}, Catalog{})
	assert.ErrorIs(t, err, ErrBlankName)
}

func TestBuildCatalog_FirstIdentityWins(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog([]model.Ingredient{{ID: 1, Name: "Salt"}, {ID: 9, Name: "SALT"}, {ID: 3, Name: " "}})
	in, ok := cat.Lookup("salt")
	require.True(t, ok)
	assert.Equal(t, int64(1), in.ID)
	assert.Len(t, cat, 1)
	assert.Equal(t, []string{"Salt"}, cat.Names())
}

func TestCatalogWith_KeepsExistingIdentities(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog([]model.Ingredient{{ID: 1, Name: "Salt"}})
	more := cat.With([]model.Ingredient{{ID: 2, Name: "salt"}, {ID: 3, Name: "Leek"}})

	assert.Len(t, cat, 1)
	require.Len(t, more, 2)
	salt, _ := more.Lookup("SALT")
	assert.Equal(t, int64(1), salt.ID)
	leek, ok := more.Lookup("leek")
	require.True(t, ok)
	assert.Equal(t, int64(3), leek.ID)
}

func TestResolveAndPersist_AllKnownSkipsBatchCreate(t *testing.T) {
	t.Parallel()

	repo := seededRepo()
	cat := BuildCatalog(repo.Ingredients())
	r := New(repo, nil)

	res, err := r.ResolveAndPersist(context.Background(), 10, []model.IngredientDescriptor{
		{Name: "Salt", Quantity: "1", Unit: "tsp"},
		{Name: "Pepper", Quantity: "2"},
	}, cat)
	require.NoError(t, err)
	assert.Equal(t, 0, repo.Calls("CreateIngredientsBatch"))
	assert.Equal(t, 1, repo.Calls("CreateMealIngredientsBatch"))
	assert.Empty(t, res.Created)
	assert.Equal(t, []model.MealIngredientLink{
		{MealID: 10, IngredientID: 1, Quantity: "1", Unit: "tsp"},
		{MealID: 10, IngredientID: 2, Quantity: "2"},
	}, res.Links)
}

func TestResolveAndPersist_EmptyCatalogCreatesEverything(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	r := New(repo, nil)
	rows := []model.IngredientDescriptor{
		{Name: "Flour", Quantity: "500", Unit: "g", Category: "baking"},
		{Name: "Yeast", Quantity: "7", Unit: "g"},
	}

	_, err := r.ResolveAndPersist(context.Background(), 3, rows, Catalog{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.Calls("CreateIngredientsBatch"))
	assert.Equal(t, []model.NewIngredient{
		{Name: "Flour", Category: "baking", Unit: "g"},
		{Name: "Yeast", Unit: "g"},
	}, repo.BatchCreateBodies[0])
	require.Len(t, repo.Links(3), 2)
}

func TestResolveAndPersist_BatchCreateFailureSkipsAssociate(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	boom := errors.New("boom")
	repo.Fail("CreateIngredientsBatch", boom)
	r := New(repo, nil)

	rows := []model.IngredientDescriptor{{Name: "NewHerb", Quantity: "2g"}}
	before := append([]model.IngredientDescriptor(nil), rows...)

	_, err := r.ResolveAndPersist(context.Background(), 5, rows, Catalog{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepCreateIngredients, step)
	assert.Equal(t, 0, repo.Calls("CreateMealIngredientsBatch"))
	assert.Equal(t, before, rows, "form rows must be left untouched")
}

func TestResolveAndPersist_DeduplicatesNewNames(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	r := New(repo, nil)

	res, err := r.ResolveAndPersist(context.Background(), 8, []model.IngredientDescriptor{
		{Name: "Basil", Quantity: "1"},
		{Name: "basil ", Quantity: "2"},
	}, Catalog{})
	require.NoError(t, err)
	require.Len(t, repo.BatchCreateBodies, 1)
	assert.Len(t, repo.BatchCreateBodies[0], 1)
	require.Len(t, res.Links, 2)
	assert.Equal(t, res.Links[0].IngredientID, res.Links[1].IngredientID)
	assert.Equal(t, "1", res.Links[0].Quantity)
	assert.Equal(t, "2", res.Links[1].Quantity)
}

func TestResolveAndPersist_NothingToDo(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	r := New(repo, nil)
	_, err := r.ResolveAndPersist(context.Background(), 1, []model.IngredientDescriptor{{}, {}}, Catalog{})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.TotalCalls())
}

type shortBatchRepo struct{ *memrepo.Repo }

func (s shortBatchRepo) CreateIngredientsBatch(ctx context.Context, in []model.NewIngredient) ([]model.Ingredient, error) {
	return nil, nil
}

func TestResolveAndPersist_MissingIdentityIsInconsistent(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	r := New(shortBatchRepo{repo}, nil)
	_, err := r.ResolveAndPersist(context.Background(), 1, []model.IngredientDescriptor{{Name: "Ghost"}}, Catalog{})
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Equal(t, 0, repo.Calls("CreateMealIngredientsBatch"))
}

func TestMatchCreated_PositionalFallback(t *testing.T) {
	t.Parallel()

	got, err := matchCreated(
		[]model.NewIngredient{{Name: "creme fraiche"}},
		[]model.Ingredient{{ID: 4, Name: "Crème fraîche"}},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got["creme fraiche"].ID)
}

func TestMatchCreated_MixedResponseDoesNotShareIdentity(t *testing.T) {
	t.Parallel()

	_, err := matchCreated(
		[]model.NewIngredient{{Name: "Leek"}, {Name: "creme fraiche"}},
		[]model.Ingredient{{ID: 7, Name: "Crème fraîche"}, {ID: 8, Name: "Leek"}},
	)
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestMatchCreated_NamesWinOverPosition(t *testing.T) {
	t.Parallel()

	got, err := matchCreated(
		[]model.NewIngredient{{Name: "Leek"}, {Name: "Onion"}},
		[]model.Ingredient{{ID: 8, Name: "onion"}, {ID: 9, Name: "leek"}},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got["leek"].ID)
	assert.Equal(t, int64(8), got["onion"].ID)
}

func TestMatchCreated_DuplicateIdentityIsInconsistent(t *testing.T) {
	t.Parallel()

	_, err := matchCreated(
		[]model.NewIngredient{{Name: "Leek"}, {Name: "Onion"}},
		[]model.Ingredient{{ID: 5, Name: "Shallot"}, {ID: 5, Name: "Shallot"}},
	)
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestCreateMeal_SoupScenario(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	salt := repo.SeedIngredient(1, "Salt", "spice", "g")
	cat := BuildCatalog(repo.Ingredients())
	r := New(repo, nil)

	draft := &MealDraft{
		Name: "Soup",
		Rows: []model.IngredientDescriptor{
			{Name: "Salt", Quantity: "1tsp"},
			{Name: "NewHerb", Quantity: "2g"},
		},
	}
	res, err := r.CreateMeal(context.Background(), draft, cat)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Calls("CreateMeal"))
	require.Equal(t, 1, repo.Calls("CreateIngredientsBatch"))
	assert.Equal(t, []model.NewIngredient{{Name: "NewHerb"}}, repo.BatchCreateBodies[0])
	require.Equal(t, 1, repo.Calls("CreateMealIngredientsBatch"))
	assert.Equal(t, 0, repo.Calls("AttachMealToMenu"))

	require.Len(t, res.Created, 1)
	herb := res.Created[0]
	assert.Equal(t, []model.MealIngredientLink{
		{MealID: draft.Meal.ID, IngredientID: salt.ID, Quantity: "1tsp"},
		{MealID: draft.Meal.ID, IngredientID: herb.ID, Quantity: "2g"},
	}, repo.BatchAssociateBodies[0])
}

func TestCreateMeal_RetryDoesNotRecreateMeal(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	repo.SeedMenu(1, "Winter")
	r := New(repo, nil)
	draft := &MealDraft{Name: "Stew", MenuID: 1, Rows: []model.IngredientDescriptor{{Name: "Beef", Quantity: "1kg"}}}

	repo.Fail("CreateIngredientsBatch", errors.New("unavailable"))
	_, err := r.CreateMeal(context.Background(), draft, Catalog{})
	require.Error(t, err)
	require.True(t, draft.Created())
	assert.False(t, draft.IngredientsSaved)

	repo.Fail("CreateIngredientsBatch", nil)
	cat := BuildCatalog(repo.Ingredients())
	_, err = r.CreateMeal(context.Background(), draft, cat)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Calls("CreateMeal"))
	assert.Equal(t, 1, repo.Calls("AttachMealToMenu"))
	assert.True(t, draft.Attached)
	assert.Len(t, repo.Links(draft.Meal.ID), 1)
}

func TestCreateMeal_ValidatesBeforeWriting(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	r := New(repo, nil)

	_, err := r.CreateMeal(context.Background(), &MealDraft{Name: "  "}, Catalog{})
	assert.ErrorIs(t, err, ErrBlankMealName)

	_, err = r.CreateMeal(context.Background(), &MealDraft{Name: "Pie", Rows: []model.IngredientDescriptor{{Quantity: "3"}}}, Catalog{})
	assert.ErrorIs(t, err, ErrBlankName)
	assert.Equal(t, 0, repo.TotalCalls())
}

func TestCreateMeal_CreateMealFailureStopsSequence(t *testing.T) {
	t.Parallel()

	repo := memrepo.New()
	repo.Fail("CreateMeal", errors.New("down"))
	r := New(repo, nil)

	_, err := r.CreateMeal(context.Background(), &MealDraft{Name: "Pie", Rows: []model.IngredientDescriptor{{Name: "Apple"}}}, Catalog{})
	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, StepCreateMeal, step)
	assert.Equal(t, 0, repo.Calls("CreateIngredientsBatch"))
	assert.Equal(t, 0, repo.Calls("CreateMealIngredientsBatch"))
}
