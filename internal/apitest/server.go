// Package apitest runs the groceries REST API in-process for tests.
//
// The server keeps its data in an in-memory SQLite database and records every request
// so tests can assert on exact call sequences.
package apitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"groceries-cli/internal/model"
)

// BasePath is the API prefix the server mounts its routes under.
const BasePath = "/api/groceries/v1"

// Call is one recorded request. Path is relative to BasePath.
type Call struct {
	Method string
	Path   string
	Body   string
}

func (c Call) String() string { return c.Method + " " + c.Path }

type Server struct {
	*httptest.Server

	st *store

	mu       sync.Mutex
	calls    []Call
	failures map[string]int
}

// New starts a server and stops it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	st, err := openStore()
	if err != nil {
		t.Fatalf("apitest: %v", err)
	}
	s := &Server{st: st, failures: map[string]int{}}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.Close()
		_ = st.Close()
	})
	return s
}

// BaseURL is the value to hand to api.NewClient.
func (s *Server) BaseURL() string { return s.URL + BasePath }

// Calls returns a copy of every recorded request.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts recorded requests matching "METHOD /path".
func (s *Server) CallCount(call string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.String() == call {
			n++
		}
	}
	return n
}

// Writes returns the recorded non-GET requests.
func (s *Server) Writes() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Fail makes requests matching "METHOD /path" answer with status. Status 0 clears it.
func (s *Server) Fail(call string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, call)
		return
	}
	s.failures[call] = status
}

func (s *Server) SeedMenu(t testing.TB, name string) model.Menu {
	t.Helper()
	m, err := s.st.createMenu(name)
	if err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	return m
}

// SeedMeal creates a meal, attached to menuID when it is non-zero.
func (s *Server) SeedMeal(t testing.TB, name string, menuID int64) model.Meal {
	t.Helper()
	m, err := s.st.createMeal(name, menuID)
	if err != nil {
		t.Fatalf("seed meal: %v", err)
	}
	return m
}

func (s *Server) SeedIngredient(t testing.TB, name, category, unit string) model.Ingredient {
	t.Helper()
	xs, err := s.st.createIngredients([]model.NewIngredient{{Name: name, Category: category, Unit: unit}})
	if err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return xs[0]
}

func (s *Server) SeedLink(t testing.TB, l model.MealIngredientLink) {
	t.Helper()
	if err := s.st.createLinks([]model.MealIngredientLink{l}); err != nil {
		t.Fatalf("seed link: %v", err)
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	h := func(pattern string, fn func(w http.ResponseWriter, r *http.Request) error) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+BasePath+path, func(w http.ResponseWriter, r *http.Request) {
			if err := fn(w, r); err != nil {
				writeError(w, err)
			}
		})
	}

	h("GET /menus", s.listMenus)
	h("POST /menus", s.createMenu)
	h("GET /menus/{id}", s.getMenu)
	h("DELETE /menus/{id}", s.deleteMenu)
	h("GET /menus/{id}/meals", s.menuMeals)
	h("GET /menus/{id}/shopping_list", s.shoppingList)

	h("GET /meals", s.listMeals)
	h("POST /meals", s.createMeal)
	h("GET /meals/{id}", s.getMeal)
	h("DELETE /meals/{id}", s.deleteMeal)
	h("PUT /meals/{id}/menus/{menuId}", s.attachMeal)
	h("DELETE /meals/{id}/menus", s.detachMeal)
	h("GET /meals/{id}/ingredients", s.mealIngredients)

	h("GET /ingredients", s.listIngredients)
	h("POST /ingredients", s.createIngredient)
	h("POST /ingredients/batch", s.createIngredientsBatch)
	h("GET /ingredients/categories", s.categories)
	h("GET /ingredients/units", s.units)

	h("POST /meals-ingredients", s.createLink)
	h("POST /meals-ingredients-batch", s.createLinksBatch)
	h("PUT /meals-ingredients", s.updateLink)

	return s.record(mux)
}

// record logs the request and applies configured failures before routing.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		c := Call{Method: r.Method, Path: strings.TrimPrefix(r.URL.Path, BasePath), Body: string(body)}

		s.mu.Lock()
		s.calls = append(s.calls, c)
		status := s.failures[c.String()]
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, fmt.Sprintf("injected failure for %s", c), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var he *httpError
	switch {
	case errors.As(err, &he):
		status = he.status
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"code": status, "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid json body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, r.PathValue(name))
	}
	return n, nil
}

type nameBody struct {
	Name string `json:"name"`
}

func (s *Server) listMenus(w http.ResponseWriter, r *http.Request) error {
	xs, err := s.st.listMenus()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, xs)
	return nil
}

func (s *Server) createMenu(w http.ResponseWriter, r *http.Request) error {
	var b nameBody
	if err := decode(r, &b); err != nil {
		return err
	}
	if strings.TrimSpace(b.Name) == "" {
		return badRequest("name is required")
	}
	m, err := s.st.createMenu(b.Name)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, m)
	return nil
}

func (s *Server) getMenu(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	m, err := s.st.getMenu(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, m)
	return nil
}

func (s *Server) deleteMenu(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.st.deleteMenu(id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) menuMeals(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if _, err := s.st.getMenu(id); err != nil {
		return err
	}
	xs, err := s.st.meals(`WHERE menu_id = ?`, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, xs)
	return nil
}

// shoppingList answers with a small HTML document, one <li> per ingredient use.
func (s *Server) shoppingList(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	menu, err := s.st.getMenu(id)
	if err != nil {
		return err
	}
	lines, err := s.st.shoppingLines(id)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><h1>%s</h1><ul>", html.EscapeString(menu.Name))
	for _, l := range lines {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(l))
	}
	b.WriteString("</ul></body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shopping-list-%d.html"`, id))
	_, _ = io.WriteString(w, b.String())
	return nil
}

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request) error {
	xs, err := s.st.meals("")
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, xs)
	return nil
}

func (s *Server) createMeal(w http.ResponseWriter, r *http.Request) error {
	var b nameBody
	if err := decode(r, &b); err != nil {
		return err
	}
	if strings.TrimSpace(b.Name) == "" {
		return badRequest("name is required")
	}
	m, err := s.st.createMeal(b.Name, 0)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, m)
	return nil
}

func (s *Server) getMeal(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	m, err := s.st.getMeal(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, m)
	return nil
}

func (s *Server) deleteMeal(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.st.deleteMeal(id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) attachMeal(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	menuID, err := pathID(r, "menuId")
	if err != nil {
		return err
	}
	if _, err := s.st.getMenu(menuID); err != nil {
		return err
	}
	if err := s.st.setMealMenu(id, menuID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) detachMeal(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.st.setMealMenu(id, nil); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) mealIngredients(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if _, err := s.st.getMeal(id); err != nil {
		return err
	}
	xs, err := s.st.mealIngredients(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, xs)
	return nil
}

func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) error {
	xs, err := s.st.listIngredients()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, xs)
	return nil
}

func (s *Server) createIngredient(w http.ResponseWriter, r *http.Request) error {
	var b model.NewIngredient
	if err := decode(r, &b); err != nil {
		return err
	}
	if strings.TrimSpace(b.Name) == "" {
		return badRequest("name is required")
	}
	xs, err := s.st.createIngredients([]model.NewIngredient{b})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, xs[0])
	return nil
}

func (s *Server) createIngredientsBatch(w http.ResponseWriter, r *http.Request) error {
	var b []model.NewIngredient
	if err := decode(r, &b); err != nil {
		return err
	}
	for i, x := range b {
		if strings.TrimSpace(x.Name) == "" {
			return badRequest("entry %d: name is required", i)
		}
	}
	xs, err := s.st.createIngredients(b)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, xs)
	return nil
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) error {
	xs, err := s.st.distinct("category")
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, xs)
	return nil
}

// units answers in the object form so both enumeration shapes get exercised.
func (s *Server) units(w http.ResponseWriter, r *http.Request) error {
	xs, err := s.st.distinct("unit")
	if err != nil {
		return err
	}
	out := make([]nameBody, 0, len(xs))
	for _, x := range xs {
		out = append(out, nameBody{Name: x})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) error {
	var l model.MealIngredientLink
	if err := decode(r, &l); err != nil {
		return err
	}
	if err := s.st.createLinks([]model.MealIngredientLink{l}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (s *Server) createLinksBatch(w http.ResponseWriter, r *http.Request) error {
	var ls []model.MealIngredientLink
	if err := decode(r, &ls); err != nil {
		return err
	}
	if err := s.st.createLinks(ls); err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (s *Server) updateLink(w http.ResponseWriter, r *http.Request) error {
	var l model.MealIngredientLink
	if err := decode(r, &l); err != nil {
		return err
	}
	if err := s.st.updateLink(l); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
