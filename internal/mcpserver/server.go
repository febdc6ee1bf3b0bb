// Package mcpserver exposes menu and meal operations as MCP tool calls over HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"groceries-cli/internal/api"
	"groceries-cli/internal/resolve"
)

// ErrUnknownTool is returned by Call for a tool name that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

var errInvalidParams = errors.New("invalid parameters")

type toolFunc func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type Server struct {
	repo     api.Repository
	resolver *resolve.Resolver
	logger   *slog.Logger

	tools map[string]toolFunc
}

func New(repo api.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		repo:     repo,
		resolver: resolve.New(repo, logger),
		logger:   logger,
	}
	s.tools = map[string]toolFunc{
		"list_menus":    s.handleListMenus,
		"menu_meals":    s.handleMenuMeals,
		"attach_meal":   s.handleAttachMeal,
		"create_meal":   s.handleCreateMeal,
		"shopping_list": s.handleShoppingList,
	}
	return s
}

// Handler serves POST / (one CallToolRequest per request) and GET /tools.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)
	mux.HandleFunc("GET /tools", s.handleTools)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.Call(r.Context(), &req)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", req.Name, "err", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("encode tool result", "tool", req.Name, "err", err)
	}
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tools": Tools()})
}

// Call dispatches one tool call.
func (s *Server) Call(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	fn, ok := s.tools[req.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, req.Name)
	}
	return fn(ctx, req)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, errInvalidParams),
		errors.Is(err, resolve.ErrBlankName),
		errors.Is(err, resolve.ErrBlankMealName):
		return http.StatusBadRequest
	case api.IsNotFound(err):
		return http.StatusNotFound
	case api.StatusCode(err) != 0, api.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonResult(data any) (*protocol.CallToolResult, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return textResult(string(b)), nil
}

func textResult(s string) *protocol.CallToolResult {
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: s,
			},
		},
	}
}
