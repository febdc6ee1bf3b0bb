package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"groceries-cli/internal/api"
	"groceries-cli/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errDoctorIssuesFound = errors.New("doctor found errors")

type doctorIssue struct {
	Severity string `json:"severity"` // "error" or "warning"
	Kind     string `json:"kind"`
	ID       int64  `json:"id,omitempty"`
	Message  string `json:"message"`
}

type doctorReport struct {
	API         string        `json:"api"`
	Menus       int           `json:"menus"`
	Meals       int           `json:"meals"`
	Ingredients int           `json:"ingredients"`
	Issues      []doctorIssue `json:"issues"`
}

func (r doctorReport) HasErrors() bool {
	return slices.ContainsFunc(r.Issues, func(i doctorIssue) bool { return i.Severity == "error" })
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the API is reachable and its catalog is consistent",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := app.repository()
			if err != nil {
				return writeErr(cmd, err)
			}
			report, err := runDoctor(cmd.Context(), repo)
			if err != nil {
				return writeErr(cmd, err)
			}
			if c, ok := repo.(*api.Client); ok {
				report.API = c.BaseURL()
			}

			if err := writeOut(cmd, app, map[string]any{
				"data": report,
				"meta": map[string]any{
					"issues":    len(report.Issues),
					"hasErrors": report.HasErrors(),
				},
				"_hints": []string{"groceries ingredients list", "groceries meals list"},
			}); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	return cmd
}

func runDoctor(ctx context.Context, repo api.Repository) (doctorReport, error) {
	var (
		menus []model.Menu
		meals []model.Meal
		form  api.FormOptions
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		menus, err = repo.ListMenus(gctx)
		return err
	})
	g.Go(func() (err error) {
		meals, err = repo.ListMeals(gctx)
		return err
	})
	g.Go(func() (err error) {
		form, err = api.HydrateForm(gctx, repo)
		return err
	})
	if err := g.Wait(); err != nil {
		return doctorReport{}, err
	}

	r := doctorReport{
		Menus:       len(menus),
		Meals:       len(meals),
		Ingredients: len(form.Catalog),
		Issues:      []doctorIssue{},
	}
	r.Issues = append(r.Issues, checkIngredients(form)...)
	r.Issues = append(r.Issues, checkDuplicates("meal", meals)...)
	r.Issues = append(r.Issues, checkDuplicates("menu", menus)...)
	return r, nil
}

// checkIngredients reports catalog entries that break name-based reuse.
func checkIngredients(form api.FormOptions) []doctorIssue {
	var out []doctorIssue
	first := map[string]int64{}
	cats := map[string]bool{}
	for _, c := range form.Categories {
		cats[model.NormalizeName(c)] = true
	}
	for _, in := range form.Catalog {
		k := model.NormalizeName(in.Name)
		if k == "" {
			out = append(out, doctorIssue{Severity: "error", Kind: "ingredient", ID: in.ID, Message: "ingredient has a blank name"})
			continue
		}
		if id, ok := first[k]; ok {
			out = append(out, doctorIssue{
				Severity: "error",
				Kind:     "ingredient",
				ID:       in.ID,
				Message:  fmt.Sprintf("%q duplicates ingredient %d; new meals will reuse %d", in.Name, id, id),
			})
			continue
		}
		first[k] = in.ID
		if c := strings.TrimSpace(in.Category); c != "" && len(cats) > 0 && !cats[model.NormalizeName(c)] {
			out = append(out, doctorIssue{
				Severity: "warning",
				Kind:     "ingredient",
				ID:       in.ID,
				Message:  fmt.Sprintf("%q has unknown category %q", in.Name, c),
			})
		}
	}
	return out
}

type named interface {
	ItemID() int64
	DisplayName() string
}

func checkDuplicates[T named](kind string, xs []T) []doctorIssue {
	var out []doctorIssue
	first := map[string]int64{}
	for _, x := range xs {
		k := model.NormalizeName(x.DisplayName())
		if id, ok := first[k]; ok {
			out = append(out, doctorIssue{
				Severity: "warning",
				Kind:     kind,
				ID:       x.ItemID(),
				Message:  fmt.Sprintf("%q has the same name as %s %d", x.DisplayName(), kind, id),
			})
			continue
		}
		first[k] = x.ItemID()
	}
	return out
}
