package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/promptmap/promptmap/pkg/generate"
	"github.com/promptmap/promptmap/pkg/pipeline"
)

func testServer(t *testing.T, gen generate.Generator) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	srv := httptest.NewServer(New(runner, gen, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResp[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeResp[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestMindmaps(t *testing.T) {
	srv := testServer(t, generate.NewStatic())

	resp := postJSON(t, srv.URL+"/v1/mindmaps", map[string]any{
		"prompt":  "history of jazz",
		"formats": []string{"png", "dot"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	body := decodeResp[mindmapResponse](t, resp)
	if len(body.Artifacts["png"]) == 0 {
		t.Error("missing png artifact")
	}
	if len(body.Artifacts["dot"]) == 0 {
		t.Error("missing dot artifact")
	}
	if body.DocumentHash == "" {
		t.Error("missing document hash")
	}
	if body.Stats.Nodes == 0 {
		t.Error("missing node count")
	}
	if body.Report.Truncated {
		t.Error("static document should not truncate")
	}
}

func TestMindmapsWithoutGenerator(t *testing.T) {
	srv := testServer(t, nil)
	resp := postJSON(t, srv.URL+"/v1/mindmaps", map[string]any{"prompt": "jazz"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	body := decodeResp[errorResponse](t, resp)
	if body.Code != "GENERATION_FAILED" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestMindmapsEmptyPrompt(t *testing.T) {
	srv := testServer(t, generate.NewStatic())
	resp := postJSON(t, srv.URL+"/v1/mindmaps", map[string]any{"prompt": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRenderBareDocument(t *testing.T) {
	srv := testServer(t, nil)

	doc := `{"Mindmap": {"text": "A", "children": [{"text": "B"}, {"text": "C"}]}}`
	resp, err := http.Post(srv.URL+"/v1/render", "application/json", bytes.NewReader([]byte(doc)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeResp[mindmapResponse](t, resp)
	if body.Stats.Nodes != 3 {
		t.Errorf("nodes = %d, want 3", body.Stats.Nodes)
	}
	if len(body.Artifacts["png"]) == 0 {
		t.Error("default format should be png")
	}
}

func TestRenderWrappedRequest(t *testing.T) {
	srv := testServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/render", map[string]any{
		"document": map[string]any{"Mindmap": map[string]any{"text": "A"}},
		"formats":  []string{"svg"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeResp[mindmapResponse](t, resp)
	if len(body.Artifacts["svg"]) == 0 {
		t.Error("missing svg artifact")
	}
}

func TestRenderRejectsWrongRootKey(t *testing.T) {
	srv := testServer(t, nil)

	doc := `{"NotMindmap": {"text": "A"}}`
	resp, err := http.Post(srv.URL+"/v1/render", "application/json", bytes.NewReader([]byte(doc)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeResp[errorResponse](t, resp)
	if body.Code != "SCHEMA_INVALID" {
		t.Errorf("code = %q, want SCHEMA_INVALID", body.Code)
	}
	if body.RequestID == "" {
		t.Error("error body should carry the request id")
	}
}

func TestRenderRepairsTrailingComma(t *testing.T) {
	srv := testServer(t, nil)

	doc := `{"Mindmap": {"text": "A", "children": [{"text": "B"},]}}`
	resp, err := http.Post(srv.URL+"/v1/render", "application/json", bytes.NewReader([]byte(doc)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after repair", resp.StatusCode)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	srv := testServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(RequestIDHeader, "caller-supplied")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "caller-supplied" {
		t.Errorf("request id = %q, want caller-supplied", got)
	}
}
