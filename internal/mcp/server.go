package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/index"
	"github.com/Aman-CERP/blogsearch/internal/search"
	"github.com/Aman-CERP/blogsearch/internal/telemetry"
	"github.com/Aman-CERP/blogsearch/internal/watcher"
	"github.com/Aman-CERP/blogsearch/pkg/version"
)

const (
	serverName = "blogsearch"
	maxLimit   = 50
)

// Searcher is the part of *search.Engine the server needs.
type Searcher interface {
	SearchByText(ctx context.Context, query string, tags []string, limit, offset int) (*search.SearchResult, error)
	SearchByTags(tags []string, order content.SortOrder, limit, offset int) *search.SearchResult
	Tags() []content.TagCount
}

var _ Searcher = (*search.Engine)(nil)

// Server is the MCP server for blogsearch.
// It lets AI clients query the article index.
type Server struct {
	mcp      *mcp.Server
	searcher Searcher
	registry *content.Registry
	config   *config.Config
	logger   *slog.Logger

	// Optional, set via SetMetrics and SetReloader.
	metrics  *telemetry.QueryMetrics
	reloader *watcher.Reloader

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search_articles",
		Description: "Full-text search over blog articles in Chinese and English. Returns ranked articles with highlighted snippets. Optionally restrict to articles carrying every given tag.",
	},
	{
		Name:        "search_tags",
		Description: "List articles carrying every given tag, newest first. Does not rank; use search_articles for text queries.",
	},
	{
		Name:        "list_tags",
		Description: "List every tag with the number of articles carrying it.",
	},
	{
		Name:        "index_status",
		Description: "Report the index manifest, the number of loaded articles and how front-matter changes are picked up.",
	},
}

// NewServer creates a new MCP server.
func NewServer(searcher Searcher, registry *content.Registry, cfg *config.Config) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		searcher: searcher,
		registry: registry,
		config:   cfg,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerTagsResource()

	return s, nil
}

// SetMetrics sets the query metrics collector. When set, a query_metrics
// resource is registered.
func (s *Server) SetMetrics(m *telemetry.QueryMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerQueryMetricsResource()
	}
}

// SetReloader lets index_status report hot-reload state.
func (s *Server) SetReloader(r *watcher.Reloader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloader = r
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return serverName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with loosely typed JSON arguments and
// returns markdown, or a structured value for index_status.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search_articles":
		return s.handleSearchArticlesTool(ctx, args)
	case "search_tags":
		return s.handleSearchTagsTool(ctx, args)
	case "list_tags":
		return FormatTags(s.searcher.Tags()), nil
	case "index_status":
		return s.handleIndexStatusTool(ctx, args)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) handleSearchArticlesTool(ctx context.Context, args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}
	tags := stringSlice(args["tags"])
	limit := s.limitArg(args)
	offset := intArg(args, "offset")

	res, err := s.searchArticles(ctx, query, tags, limit, offset)
	if err != nil {
		return "", err
	}
	return FormatSearchResults(query, res), nil
}

func (s *Server) handleSearchTagsTool(ctx context.Context, args map[string]any) (string, error) {
	tags := stringSlice(args["tags"])
	order, _ := args["order"].(string)

	res, err := s.searchTags(ctx, tags, order, s.limitArg(args), intArg(args, "offset"))
	if err != nil {
		return "", err
	}
	return FormatTagResults(tags, res), nil
}

// searchArticles runs a free-text query with request logging.
func (s *Server) searchArticles(ctx context.Context, query string, tags []string, limit, offset int) (*search.SearchResult, error) {
	if offset < 0 {
		return nil, NewInvalidParamsError("offset must not be negative")
	}
	start := time.Now()
	requestID := generateRequestID()

	s.logger.Info("search_articles started",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	res, err := s.searcher.SearchByText(ctx, query, tags, limit, offset)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("search_articles failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("search_articles completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Uint64("count", res.Count),
		slog.Int("result_count", len(res.Terms)))
	return res, nil
}

func (s *Server) searchTags(_ context.Context, tags []string, order string, limit, offset int) (*search.SearchResult, error) {
	if offset < 0 {
		return nil, NewInvalidParamsError("offset must not be negative")
	}
	sortOrder, err := content.ParseSortOrder(order)
	if err != nil {
		return nil, NewInvalidParamsError(fmt.Sprintf("unknown order %q: use posted or updated", order))
	}

	res := s.searcher.SearchByTags(tags, sortOrder, limit, offset)
	s.logger.Info("search_tags completed",
		slog.String("tags", strings.Join(tags, ",")),
		slog.Uint64("count", res.Count))
	return res, nil
}

// handleIndexStatusTool reports the index manifest, the registry and the
// reloader. A missing manifest is reported, not returned as an error.
func (s *Server) handleIndexStatusTool(_ context.Context, _ map[string]any) (*IndexStatusOutput, error) {
	indexDir := s.config.Paths.IndexDir
	out := &IndexStatusOutput{
		Index:  IndexInfo{Path: indexDir},
		Reload: ReloadInfo{Mode: "disabled"},
	}

	if m, err := index.ReadManifest(indexDir); err != nil {
		out.Index.Error = err.Error()
	} else {
		out.Index.Available = true
		out.Index.Documents = m.Documents
		out.Index.Stopwords = m.Stopwords
		out.Index.Fingerprint = m.Fingerprint
		out.Index.BuiltAt = m.BuiltAt.Format(time.RFC3339)
	}

	snap := s.registry.Snapshot()
	out.Registry = RegistryInfo{
		Articles: snap.Len(),
		Tags:     len(snap.Tags()),
		LoadedAt: snap.LoadedAt().Format(time.RFC3339),
	}

	s.mu.RLock()
	reloader := s.reloader
	s.mu.RUnlock()
	if reloader != nil {
		out.Reload = ReloadInfo{
			Mode:     reloader.Mode(),
			Reloads:  reloader.Reloads(),
			Failures: reloader.Failures(),
		}
	}

	s.logger.Info("index_status completed",
		slog.Bool("index_available", out.Index.Available),
		slog.Int("articles", out.Registry.Articles),
		slog.String("reload_mode", out.Reload.Mode))
	return out, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchArticlesHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpSearchTagsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpListTagsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpIndexStatusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchArticlesHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchArticlesInput) (
	*mcp.CallToolResult,
	ArticlesOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, ArticlesOutput{}, NewInvalidParamsError("query parameter is required")
	}
	limit := clampLimit(input.Limit, s.config.Search.DefaultLimit, 1, maxLimit)

	res, err := s.searchArticles(ctx, input.Query, input.Tags, limit, input.Offset)
	if err != nil {
		return nil, ArticlesOutput{}, err
	}
	return nil, ToArticlesOutput(res), nil
}

func (s *Server) mcpSearchTagsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchTagsInput) (
	*mcp.CallToolResult,
	ArticlesOutput,
	error,
) {
	limit := clampLimit(input.Limit, s.config.Search.DefaultLimit, 1, maxLimit)

	res, err := s.searchTags(ctx, input.Tags, input.Order, limit, input.Offset)
	if err != nil {
		return nil, ArticlesOutput{}, err
	}
	return nil, ToArticlesOutput(res), nil
}

func (s *Server) mcpListTagsHandler(_ context.Context, _ *mcp.CallToolRequest, _ ListTagsInput) (
	*mcp.CallToolResult,
	ListTagsOutput,
	error,
) {
	return nil, ListTagsOutput{Tags: s.searcher.Tags()}, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	output, err := s.handleIndexStatusTool(ctx, nil)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, output, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func (s *Server) limitArg(args map[string]any) int {
	return clampLimit(intArg(args, "limit"), s.config.Search.DefaultLimit, 1, maxLimit)
}

// intArg reads a JSON number argument. Missing or mistyped values are 0.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// stringSlice reads a JSON array of strings, skipping other elements.
func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
