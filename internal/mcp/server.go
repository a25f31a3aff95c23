// Package mcp exposes the trained speakers to assistants through the Model
// Context Protocol.
//
// Three tools are registered:
//   - "guess_pronunciation": predict how a speaker pronounces a target word,
//     optionally with the rule that decided every phoneme.
//   - "list_speakers": the known speakers and their training state.
//   - "list_rules": the specific and generalized rules learned for a speaker.
//
// The same [Server] can be served over stdio ([Server.Run]) or mounted on an
// HTTP mux ([Server.Handler]).
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/phonoshift/internal/observe"
	"github.com/MrWong99/phonoshift/internal/speaker"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

// Speakers is the subset of [speaker.Registry] the tools need.
type Speakers interface {
	Explain(ctx context.Context, name, target string) (string, []rules.Decision, error)
	Guess(ctx context.Context, name, target string) (string, error)
	Model(name string) (*rules.Model, error)
	List() []speaker.Info
}

// Server is an MCP server over a set of speakers.
type Server struct {
	speakers Speakers
	metrics  *observe.Metrics
	logger   *slog.Logger
	server   *mcpsdk.Server
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server and registers its tools.
func NewServer(speakers Speakers, version string, opts ...Option) *Server {
	s := &Server{speakers: speakers}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.server = mcpsdk.NewServer(&mcpsdk.Implementation{Name: "phonoshift", Version: version}, nil)
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "guess_pronunciation",
		Description: "Predict how a speaker will pronounce a word given in Arpabet notation (phonemes joined by '-', syllables separated by spaces).",
	}, instrument(s, "guess_pronunciation", s.guess))
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "list_speakers",
		Description: "List the known speakers and whether a pronunciation model is trained for them.",
	}, instrument(s, "list_speakers", s.listSpeakers))
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "list_rules",
		Description: "List the substitution rules learned for a speaker.",
	}, instrument(s, "list_rules", s.listRules))
	return s
}

// Run serves a single session on t until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, t mcpsdk.Transport) error {
	if err := s.server.Run(ctx, t); err != nil {
		return fmt.Errorf("mcp: run: %w", err)
	}
	return nil
}

// RunStdio serves a single session over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect starts a session on t and returns without waiting for it to end.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// Handler returns the Streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.server
	}, nil)
}

func instrument[In, Out any](s *Server, tool string, fn mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		ctx, span := observe.StartSpan(ctx, "mcp."+tool)
		defer span.End()

		res, out, err := fn(ctx, req, in)
		s.metrics.RecordToolCall(ctx, tool, err)
		if err != nil {
			observe.RecordError(span, err)
			observe.WithTrace(ctx, s.logger).DebugContext(ctx, "mcp tool failed", "tool", tool, "err", err)
		}
		return res, out, err
	}
}
