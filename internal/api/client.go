package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"groceries-cli/internal/model"

	"github.com/google/uuid"
)

const DefaultBaseURL = "http://localhost:5000/api/groceries/v1"

// Client talks JSON over HTTP to the groceries API. It sends no auth headers.
type Client struct {
	base   string
	hc     *http.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   strings.TrimRight(u.String(), "/"),
		hc:     defaultHTTPClient(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL (no trailing slash).
func (c *Client) BaseURL() string { return c.base }

// Requests have no client-side timeout; callers bound them with ctx.
func defaultHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Transport: transport}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

func (c *Client) send(req *http.Request, path string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			"method", req.Method, "path", path, "request_id", req.Header.Get("X-Request-Id"), "err", err)
		return nil, &TransportError{Method: req.Method, Path: path, Err: err}
	}
	c.logger.Debug("api request",
		"method", req.Method, "path", path, "status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-Id"), "dur", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Method: req.Method, Path: path, Status: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}

// do issues one JSON request. out may be nil when the response body is ignored.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.send(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s %s: empty response body", method, path)
		}
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func (c *Client) ListMenus(ctx context.Context) ([]model.Menu, error) {
	var out []model.Menu
	if err := c.do(ctx, http.MethodGet, "/menus", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) GetMenu(ctx context.Context, menuID int64) (model.Menu, error) {
	var out model.Menu
	err := c.do(ctx, http.MethodGet, "/menus/"+id(menuID), nil, &out)
	return out, err
}

func (c *Client) CreateMenu(ctx context.Context, name string) (model.Menu, error) {
	var out model.Menu
	err := c.do(ctx, http.MethodPost, "/menus", map[string]string{"name": name}, &out)
	return out, err
}

func (c *Client) DeleteMenu(ctx context.Context, menuID int64) error {
	return c.do(ctx, http.MethodDelete, "/menus/"+id(menuID), nil, nil)
}

func (c *Client) MenuMeals(ctx context.Context, menuID int64) ([]model.Meal, error) {
	var out []model.Meal
	if err := c.do(ctx, http.MethodGet, "/menus/"+id(menuID)+"/meals", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// ShoppingList downloads the menu's shopping list. The format is whatever the
// server produces; the body is returned untouched.
func (c *Client) ShoppingList(ctx context.Context, menuID int64) (model.ShoppingList, error) {
	path := "/menus/" + id(menuID) + "/shopping_list"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return model.ShoppingList{}, err
	}
	resp, err := c.send(req, path)
	if err != nil {
		return model.ShoppingList{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ShoppingList{}, &TransportError{Method: http.MethodGet, Path: path, Err: err}
	}
	sl := model.ShoppingList{
		MenuID:      menuID,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        b,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			sl.Filename = params["filename"]
		}
	}
	return sl, nil
}

func (c *Client) ListMeals(ctx context.Context) ([]model.Meal, error) {
	var out []model.Meal
	if err := c.do(ctx, http.MethodGet, "/meals", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) GetMeal(ctx context.Context, mealID int64) (model.Meal, error) {
	var out model.Meal
	err := c.do(ctx, http.MethodGet, "/meals/"+id(mealID), nil, &out)
	return out, err
}

func (c *Client) CreateMeal(ctx context.Context, name string) (model.Meal, error) {
	var out model.Meal
	err := c.do(ctx, http.MethodPost, "/meals", map[string]string{"name": name}, &out)
	return out, err
}

func (c *Client) DeleteMeal(ctx context.Context, mealID int64) error {
	return c.do(ctx, http.MethodDelete, "/meals/"+id(mealID), nil, nil)
}

func (c *Client) AttachMealToMenu(ctx context.Context, mealID, menuID int64) error {
	return c.do(ctx, http.MethodPut, "/meals/"+id(mealID)+"/menus/"+id(menuID), nil, nil)
}

func (c *Client) DetachMealFromMenus(ctx context.Context, mealID int64) error {
	return c.do(ctx, http.MethodDelete, "/meals/"+id(mealID)+"/menus", nil, nil)
}

func (c *Client) MealIngredients(ctx context.Context, mealID int64) ([]model.MealIngredient, error) {
	var out []model.MealIngredient
	if err := c.do(ctx, http.MethodGet, "/meals/"+id(mealID)+"/ingredients", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	var out []model.Ingredient
	if err := c.do(ctx, http.MethodGet, "/ingredients", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) CreateIngredient(ctx context.Context, in model.NewIngredient) (model.Ingredient, error) {
	var out model.Ingredient
	err := c.do(ctx, http.MethodPost, "/ingredients", in, &out)
	return out, err
}

func (c *Client) CreateIngredientsBatch(ctx context.Context, in []model.NewIngredient) ([]model.Ingredient, error) {
	var out []model.Ingredient
	if err := c.do(ctx, http.MethodPost, "/ingredients/batch", in, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) IngredientCategories(ctx context.Context) ([]string, error) {
	return c.enumeration(ctx, "/ingredients/categories")
}

func (c *Client) IngredientUnits(ctx context.Context) ([]string, error) {
	return c.enumeration(ctx, "/ingredients/units")
}

// enumeration accepts either ["a","b"] or [{"name":"a"},...].
func (c *Client) enumeration(ctx context.Context, path string) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	var xs []string
	if err := json.Unmarshal(raw, &xs); err == nil {
		return nonNil(xs), nil
	}
	var objs []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("GET %s: unexpected enumeration shape: %w", path, err)
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Name)
	}
	return out, nil
}

func (c *Client) CreateMealIngredient(ctx context.Context, link model.MealIngredientLink) error {
	return c.do(ctx, http.MethodPost, "/meals-ingredients", link, nil)
}

func (c *Client) CreateMealIngredientsBatch(ctx context.Context, links []model.MealIngredientLink) error {
	return c.do(ctx, http.MethodPost, "/meals-ingredients-batch", links, nil)
}

func (c *Client) UpdateMealIngredient(ctx context.Context, link model.MealIngredientLink) error {
	return c.do(ctx, http.MethodPut, "/meals-ingredients", link, nil)
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

var _ Repository = (*Client)(nil)
