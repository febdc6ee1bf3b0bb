package apitest

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"groceries-cli/internal/model"
)

var errNotFound = errors.New("not found")

type store struct {
	db *sql.DB
}

func openStore() (*store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	s := &store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *store) Close() error { return s.db.Close() }

func (s *store) initSchema() error {
	schema := `
    PRAGMA foreign_keys = ON;

    CREATE TABLE IF NOT EXISTS menus (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE
    );

    CREATE TABLE IF NOT EXISTS meals (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        menu_id INTEGER REFERENCES menus(id) ON DELETE SET NULL
    );

    CREATE TABLE IF NOT EXISTS ingredients (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        unit TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS meals_ingredients (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        meal_id INTEGER NOT NULL REFERENCES meals(id) ON DELETE CASCADE,
        ingredient_id INTEGER NOT NULL REFERENCES ingredients(id),
        quantity TEXT NOT NULL DEFAULT '',
        unit TEXT NOT NULL DEFAULT ''
    );

    CREATE INDEX IF NOT EXISTS idx_meals_menu_id ON meals(menu_id);
    CREATE INDEX IF NOT EXISTS idx_meals_ingredients_meal_id ON meals_ingredients(meal_id);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *store) listMenus() ([]model.Menu, error) {
	rows, err := s.db.Query(`SELECT id, name FROM menus ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Menu{}
	for rows.Next() {
		var m model.Menu
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *store) getMenu(id int64) (model.Menu, error) {
	var m model.Menu
	err := s.db.QueryRow(`SELECT id, name FROM menus WHERE id = ?`, id).Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return m, errNotFound
	}
	return m, err
}

func (s *store) createMenu(name string) (model.Menu, error) {
	res, err := s.db.Exec(`INSERT INTO menus (name) VALUES (?)`, name)
	if err != nil {
		return model.Menu{}, err
	}
	id, err := res.LastInsertId()
	return model.Menu{ID: id, Name: name}, err
}

func (s *store) deleteMenu(id int64) error {
	return s.deleteByID(`DELETE FROM menus WHERE id = ?`, id)
}

func (s *store) deleteByID(query string, id int64) error {
	res, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func (s *store) meals(where string, args ...any) ([]model.Meal, error) {
	rows, err := s.db.Query(`SELECT id, name FROM meals `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Meal{}
	for rows.Next() {
		var m model.Meal
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *store) getMeal(id int64) (model.Meal, error) {
	var m model.Meal
	err := s.db.QueryRow(`SELECT id, name FROM meals WHERE id = ?`, id).Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return m, errNotFound
	}
	return m, err
}

func (s *store) createMeal(name string, menuID int64) (model.Meal, error) {
	var menu any
	if menuID != 0 {
		menu = menuID
	}
	res, err := s.db.Exec(`INSERT INTO meals (name, menu_id) VALUES (?, ?)`, name, menu)
	if err != nil {
		return model.Meal{}, err
	}
	id, err := res.LastInsertId()
	return model.Meal{ID: id, Name: name}, err
}

func (s *store) deleteMeal(id int64) error {
	return s.deleteByID(`DELETE FROM meals WHERE id = ?`, id)
}

func (s *store) setMealMenu(mealID int64, menuID any) error {
	res, err := s.db.Exec(`UPDATE meals SET menu_id = ? WHERE id = ?`, menuID, mealID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func (s *store) listIngredients() ([]model.Ingredient, error) {
	rows, err := s.db.Query(`SELECT id, name, category, unit FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ingredient{}
	for rows.Next() {
		var in model.Ingredient
		if err := rows.Scan(&in.ID, &in.Name, &in.Category, &in.Unit); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// createIngredients inserts all entries in one transaction.
func (s *store) createIngredients(xs []model.NewIngredient) ([]model.Ingredient, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]model.Ingredient, 0, len(xs))
	for _, x := range xs {
		res, err := tx.Exec(`INSERT INTO ingredients (name, category, unit) VALUES (?, ?, ?)`, x.Name, x.Category, x.Unit)
		if err != nil {
			return nil, fmt.Errorf("insert ingredient: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, model.Ingredient{ID: id, Name: x.Name, Category: x.Category, Unit: x.Unit})
	}
	return out, tx.Commit()
}

func (s *store) distinct(column string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT ` + column + ` FROM ingredients WHERE ` + column + ` <> '' ORDER BY ` + column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *store) mealIngredients(mealID int64) ([]model.MealIngredient, error) {
	rows, err := s.db.Query(`
        SELECT mi.id, mi.quantity, mi.unit, i.id, i.name, i.category, i.unit
        FROM meals_ingredients mi JOIN ingredients i ON i.id = mi.ingredient_id
        WHERE mi.meal_id = ?
        ORDER BY mi.id`, mealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MealIngredient{}
	for rows.Next() {
		var mi model.MealIngredient
		if err := rows.Scan(&mi.ID, &mi.Quantity, &mi.Unit,
			&mi.Ingredient.ID, &mi.Ingredient.Name, &mi.Ingredient.Category, &mi.Ingredient.Unit); err != nil {
			return nil, err
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}

func (s *store) createLinks(links []model.MealIngredientLink) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, l := range links {
		if _, err := tx.Exec(`INSERT INTO meals_ingredients (meal_id, ingredient_id, quantity, unit) VALUES (?, ?, ?, ?)`,
			l.MealID, l.IngredientID, l.Quantity, l.Unit); err != nil {
			return fmt.Errorf("insert meal ingredient: %w", err)
		}
	}
	return tx.Commit()
}

func (s *store) updateLink(l model.MealIngredientLink) error {
	res, err := s.db.Exec(`UPDATE meals_ingredients SET quantity = ?, unit = ? WHERE meal_id = ? AND ingredient_id = ?`,
		l.Quantity, l.Unit, l.MealID, l.IngredientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

// shoppingLines returns "name quantity unit" per ingredient use on the menu.
func (s *store) shoppingLines(menuID int64) ([]string, error) {
	rows, err := s.db.Query(`
        SELECT i.name, mi.quantity, CASE WHEN mi.unit <> '' THEN mi.unit ELSE i.unit END
        FROM meals m
        JOIN meals_ingredients mi ON mi.meal_id = m.id
        JOIN ingredients i ON i.id = mi.ingredient_id
        WHERE m.menu_id = ?
        ORDER BY i.name, m.id`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name, qty, unit string
		if err := rows.Scan(&name, &qty, &unit); err != nil {
			return nil, err
		}
		line := name
		if qty != "" {
			line += " " + qty
		}
		if unit != "" {
			line += " " + unit
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
