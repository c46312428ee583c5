// Package mcp implements a Model Context Protocol server exposing score
// inspection and playback simulation as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aylabs/musicore-playback/internal/observability"
	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/internal/scorecache"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "musicore-playback"
	// serverVersion is the MCP server implementation version.
	serverVersion = "1.0.0"

	// toolCount is the expected number of registered tools.
	toolCount = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Cache is an optional score cache. Nil creates one with default capacity.
	Cache *scorecache.Cache
}

// Server wraps the MCP SDK server with musicore tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	cache   *scorecache.Cache

	// Single-entry index memo: a polling client replays active_notes
	// against one score, and the cache hands back the same *score.Score
	// pointer while the file is unchanged, so pointer identity is the
	// staleness check.
	indexMu    sync.Mutex
	indexScore *score.Score
	index      *highlight.Index
}

// NewServer creates a new MCP server with all musicore tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		opts,
	)

	cache := deps.Cache
	if cache == nil {
		cache = scorecache.New(scorecache.DefaultCapacity)
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		cache:   cache,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// CacheStats returns the score cache metrics.
func (s *Server) CacheStats() scorecache.Stats {
	return s.cache.Stats()
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all musicore MCP tools to the server.
func (s *Server) registerTools() {
	s.registerScoreInfoTool()
	s.registerActiveNotesTool()
	s.registerSimulateTool()
}

func (s *Server) registerScoreInfoTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameScoreInfo,
		Description: scoreInfoToolDescription,
	}, withMetrics(s.metrics, ToolNameScoreInfo, withTracing(s.tracer, ToolNameScoreInfo, s.handleScoreInfo)))

	s.trackTool(ToolNameScoreInfo)
}

func (s *Server) registerActiveNotesTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameActiveNotes,
		Description: activeNotesToolDescription,
	}, withMetrics(s.metrics, ToolNameActiveNotes, withTracing(s.tracer, ToolNameActiveNotes, s.handleActiveNotes)))

	s.trackTool(ToolNameActiveNotes)
}

func (s *Server) registerSimulateTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSimulate,
		Description: simulateToolDescription,
	}, withMetrics(s.metrics, ToolNameSimulate, withTracing(s.tracer, ToolNameSimulate, s.handleSimulate)))

	s.trackTool(ToolNameSimulate)
}

// mcpSpanPrefix is the prefix for MCP tool span names. The default trace
// filter suppresses musicore.mcp.active_notes by full name: a polling
// client calls it every frame.
const mcpSpanPrefix = "musicore.mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		// Include trace_id in response when span is sampled.
		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, "mcp."+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		metrics.RecordRequest(ctx, "mcp."+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	scoreInfoToolDescription = "Inspect a score file: identity, note count, " +
		"end tick, playing time, tempo changes, and instruments. " +
		"Accepts JSON scores and standard MIDI files."

	activeNotesToolDescription = "List the note IDs sounding at a timeline position. " +
		"Notes are active on the half-open interval [start, start+duration); " +
		"zero-duration notes are never active."

	simulateToolDescription = "Run a virtual playback of a score and report frame " +
		"statistics: frames processed and skipped, patches applied, notes added " +
		"and removed, degradation transitions. " +
		"Optional fps, budget_ms, threshold, and stress_ms knobs."
)
