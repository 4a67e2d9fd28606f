// Package server exposes the mindmap pipeline over HTTP.
//
// The API is deliberately small: one endpoint that expands a prompt into a
// rendered mindmap, one that renders a caller-supplied document, and a health
// probe. Artifacts are returned base64-encoded inside the JSON response so a
// single request carries every requested format plus the render report.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/promptmap/promptmap/pkg/errors"
	"github.com/promptmap/promptmap/pkg/generate"
	"github.com/promptmap/promptmap/pkg/pipeline"
	"github.com/promptmap/promptmap/pkg/render"
)

// MaxBodyBytes caps request bodies; documents and prompts are small.
const MaxBodyBytes = 1 << 20

// Server wires the pipeline runner to HTTP handlers.
type Server struct {
	runner    *pipeline.Runner
	generator generate.Generator
	logger    *log.Logger
}

// New creates a server. The generator may be nil, in which case only the
// render endpoint is usable and prompt requests fail with a clear error.
func New(runner *pipeline.Runner, gen generate.Generator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, generator: gen, logger: logger}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/mindmaps", s.handleMindmaps)
		r.Post("/render", s.handleRender)
	})
	return r
}

// mindmapRequest is the body for POST /v1/mindmaps.
type mindmapRequest struct {
	Prompt    string   `json:"prompt"`
	Formats   []string `json:"formats,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	WrapWidth float64  `json:"wrap_width,omitempty"`
	MaxDepth  int      `json:"max_depth,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`
}

// mindmapResponse is the success body for both render endpoints.
type mindmapResponse struct {
	DocumentHash string            `json:"document_hash"`
	Document     json.RawMessage   `json:"document"`
	Artifacts    map[string][]byte `json:"artifacts"`
	Report       reportBody        `json:"report"`
	Stats        statsBody         `json:"stats"`
	Cached       cachedBody        `json:"cached"`
}

type reportBody struct {
	Truncated  bool        `json:"truncated"`
	NodeErrors []nodeError `json:"node_errors,omitempty"`
}

type nodeError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type statsBody struct {
	Nodes      int    `json:"nodes"`
	Depth      int    `json:"depth"`
	GenerateMS int64  `json:"generate_ms"`
	RenderMS   int64  `json:"render_ms"`
	Model      string `json:"model,omitempty"`
}

type cachedBody struct {
	Document  bool `json:"document"`
	Artifacts bool `json:"artifacts"`
}

// errorResponse is the body for all failures.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMindmaps expands a prompt into a rendered mindmap.
func (s *Server) handleMindmaps(w http.ResponseWriter, r *http.Request) {
	var req mindmapRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeEncoding, err, "invalid request body"))
		return
	}
	if s.generator == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeGeneration, "no generator configured (set OPENAI_API_KEY)"))
		return
	}

	s.execute(w, r, pipeline.Options{
		Prompt:    req.Prompt,
		Formats:   req.Formats,
		Width:     req.Width,
		Height:    req.Height,
		WrapWidth: req.WrapWidth,
		MaxDepth:  req.MaxDepth,
		Refresh:   req.Refresh,
		Generator: s.generator,
		Logger:    s.logger,
	})
}

// renderRequest is the body for POST /v1/render. The document is passed
// through to the validator untouched, so repairable encoding defects are
// handled the same way as on the prompt path.
type renderRequest struct {
	Document json.RawMessage `json:"document"`
	Formats  []string        `json:"formats,omitempty"`
	Width    int             `json:"width,omitempty"`
	Height   int             `json:"height,omitempty"`
	MaxDepth int             `json:"max_depth,omitempty"`
}

// handleRender renders a caller-supplied document without generation.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeEncoding, err, "read request body"))
		return
	}

	// The raw body may be either a bare document or a renderRequest wrapper.
	var req renderRequest
	if err := json.Unmarshal(body, &req); err != nil || len(req.Document) == 0 {
		req = renderRequest{Document: body}
	}

	s.execute(w, r, pipeline.Options{
		Document: req.Document,
		Formats:  req.Formats,
		Width:    req.Width,
		Height:   req.Height,
		MaxDepth: req.MaxDepth,
		Logger:   s.logger,
	})
}

// execute runs the pipeline and writes the response.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	docJSON, err := json.Marshal(result.Document)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode document"))
		return
	}

	resp := mindmapResponse{
		DocumentHash: result.DocumentHash,
		Document:     docJSON,
		Artifacts:    result.Artifacts,
		Report:       toReportBody(result.Report),
		Stats: statsBody{
			Nodes:      result.Stats.NodeCount,
			Depth:      result.Stats.Depth,
			GenerateMS: result.Stats.GenerateTime.Milliseconds(),
			RenderMS:   result.Stats.RenderTime.Milliseconds(),
		},
		Cached: cachedBody{
			Document:  result.CacheInfo.GenerateHit,
			Artifacts: result.CacheInfo.RenderHit,
		},
	}
	if opts.Generator != nil {
		resp.Stats.Model = opts.Generator.Model()
	}
	writeJSON(w, http.StatusOK, resp)
}

func toReportBody(report render.Report) reportBody {
	body := reportBody{Truncated: report.Truncated}
	for _, ne := range report.NodeErrors {
		body.NodeErrors = append(body.NodeErrors, nodeError{
			Path:  ne.Path,
			Error: errors.UserMessage(ne.Err),
		})
	}
	return body
}

// statusFor maps error codes to HTTP statuses. Validation failures are the
// caller's fault; generator failures are upstream.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeSchema, errors.ErrCodeEncoding, errors.ErrCodePrompt, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", id, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: id,
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the server until the context is cancelled, then shuts down
// gracefully. Timeouts bound slow clients; render work itself is fast
// relative to generation.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
