package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/library"
	"github.com/dgallion1/docnav/internal/views"
)

const maxFlowMD = `# Max Flow

Residual graphs and augmenting paths.

## Setup

Capacities on every edge.

## Proof

Min cut equals max flow.
`

func newTestServer(t *testing.T) (*httptest.Server, *views.Manager) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "algo"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"max_flow.md":  maxFlowMD,
		"algo/dp.html": "<h1>DP</h1><p>memo</p>",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.ContentDir = dir
	cfg.ThrottleInterval = 5 * time.Millisecond
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	lib := library.New(cfg, log)
	vm := views.NewManager(cfg, lib, log)
	ts := httptest.NewServer(NewServer(lib, vm, log, cfg))
	t.Cleanup(ts.Close)
	return ts, vm
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/health", nil, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestDocuments(t *testing.T) {
	ts, _ := newTestServer(t)

	var list struct {
		Documents []library.Summary `json:"documents"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/documents", nil, &list); code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	if len(list.Documents) != 2 || list.Documents[0].Slug != "algo/dp" || list.Documents[1].Slug != "max_flow" {
		t.Fatalf("unexpected documents %+v", list.Documents)
	}

	var doc documentResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/documents/max_flow", nil, &doc); code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", code)
	}
	if doc.Title != "Max Flow" || len(doc.Sections) != 3 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !strings.Contains(doc.HTML, `id="heading-1"`) {
		t.Errorf("expected annotated html, got %s", doc.HTML)
	}
	if doc.ReadingTime.Words == 0 || doc.ReadingTime.Label == "" {
		t.Errorf("expected reading time, got %+v", doc.ReadingTime)
	}

	if code := doJSON(t, http.MethodGet, ts.URL+"/api/documents/algo/dp", nil, &doc); code != http.StatusOK {
		t.Fatalf("nested get: expected 200, got %d", code)
	}

	var errBody map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/documents/nope", nil, &errBody); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if errBody["error"] == "" {
		t.Error("expected error message")
	}
}

func TestExtractStats(t *testing.T) {
	ts, _ := newTestServer(t)
	doJSON(t, http.MethodGet, ts.URL+"/api/documents/max_flow", nil, &documentResponse{})

	var body struct {
		Stats library.ExtractSnapshot `json:"stats"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/stats/extract", nil, &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Stats.Documents != 1 {
		t.Errorf("expected 1 extraction, got %d", body.Stats.Documents)
	}
}

func TestViewLifecycle(t *testing.T) {
	ts, vm := newTestServer(t)

	var snap views.Snapshot
	if code := doJSON(t, http.MethodPost, ts.URL+"/api/views", map[string]string{"slug": "max_flow"}, &snap); code != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d", code)
	}
	if snap.ID == "" || len(snap.Sections) != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	base := ts.URL + "/api/views/" + snap.ID

	sample := map[string]any{
		"scroll_top":      500,
		"viewport_height": 1000,
		"document_height": 3000,
		"anchors":         map[string]float64{"heading-0": -50, "heading-1": 300, "heading-2": 900},
	}
	var sampled struct {
		State struct {
			ActiveID string  `json:"active_id"`
			Progress float64 `json:"progress"`
		} `json:"state"`
	}
	if code := doJSON(t, http.MethodPost, base+"/samples", sample, &sampled); code != http.StatusOK {
		t.Fatalf("sample: expected 200, got %d", code)
	}
	if sampled.State.ActiveID != "heading-1" || sampled.State.Progress != 25 {
		t.Errorf("unexpected state %+v", sampled.State)
	}

	var nav struct {
		Scroll *views.ScrollCommand `json:"scroll"`
	}
	if code := doJSON(t, http.MethodPost, base+"/navigate", map[string]string{"id": "heading-2"}, &nav); code != http.StatusOK {
		t.Fatalf("navigate: expected 200, got %d", code)
	}
	if nav.Scroll == nil || nav.Scroll.Top != 1300 || !nav.Scroll.Smooth {
		t.Errorf("expected smooth scroll to 1300, got %+v", nav.Scroll)
	}

	nav.Scroll = nil
	doJSON(t, http.MethodPost, base+"/navigate", map[string]string{"id": "missing"}, &nav)
	if nav.Scroll != nil {
		t.Errorf("expected no scroll for unknown id, got %+v", nav.Scroll)
	}

	if code := doJSON(t, http.MethodDelete, base, nil, nil); code != http.StatusNoContent {
		t.Fatalf("close: expected 204, got %d", code)
	}
	if vm.Len() != 0 {
		t.Errorf("expected view to be discarded")
	}
	if code := doJSON(t, http.MethodPost, base+"/samples", sample, &map[string]string{}); code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", code)
	}
}

func TestOpenViewErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing slug", map[string]string{}, http.StatusBadRequest},
		{"unknown document", map[string]string{"slug": "nope"}, http.StatusNotFound},
		{"bad json", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			if code := doJSON(t, http.MethodPost, ts.URL+"/api/views", tt.body, &body); code != tt.want {
				t.Errorf("expected %d, got %d (%v)", tt.want, code, body)
			}
		})
	}
}

type wsFrame struct {
	Type     string  `json:"type"`
	ActiveID string  `json:"active_id"`
	Progress float64 `json:"progress"`
	Top      float64 `json:"top"`
	Smooth   bool    `json:"smooth"`
	Error    string  `json:"error"`
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wsFrame) bool) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var f wsFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func TestViewSocket(t *testing.T) {
	ts, vm := newTestServer(t)

	var snap views.Snapshot
	doJSON(t, http.MethodPost, ts.URL+"/api/views", map[string]string{"slug": "max_flow"}, &snap)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/views/" + snap.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	first := readUntil(t, conn, func(f wsFrame) bool { return true })
	if first.Type != "state" || first.ActiveID != "" {
		t.Fatalf("expected initial empty state, got %+v", first)
	}

	err = conn.WriteJSON(map[string]any{
		"type":            "sample",
		"scroll_top":      500,
		"viewport_height": 1000,
		"document_height": 3000,
		"anchors":         map[string]float64{"heading-0": -50, "heading-1": 300, "heading-2": 900},
	})
	if err != nil {
		t.Fatal(err)
	}
	st := readUntil(t, conn, func(f wsFrame) bool { return f.Type == "state" && f.ActiveID != "" })
	if st.ActiveID != "heading-1" || st.Progress != 25 {
		t.Errorf("unexpected state %+v", st)
	}

	if err := conn.WriteJSON(map[string]string{"type": "navigate", "id": "heading-1"}); err != nil {
		t.Fatal(err)
	}
	sc := readUntil(t, conn, func(f wsFrame) bool { return f.Type == "scroll" })
	if sc.Top != 700 || !sc.Smooth {
		t.Errorf("expected smooth scroll to 700, got %+v", sc)
	}

	if err := conn.WriteJSON(map[string]string{"type": "top"}); err != nil {
		t.Fatal(err)
	}
	sc = readUntil(t, conn, func(f wsFrame) bool { return f.Type == "scroll" })
	if sc.Top != 0 {
		t.Errorf("expected scroll to top, got %+v", sc)
	}

	if err := conn.WriteJSON(map[string]string{"type": "bogus"}); err != nil {
		t.Fatal(err)
	}
	if e := readUntil(t, conn, func(f wsFrame) bool { return f.Type == "error" }); e.Error == "" {
		t.Error("expected error message for unknown frame")
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for vm.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected view to be released when the socket closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestViewSocketRejectsOversizedFrames(t *testing.T) {
	ts, vm := newTestServer(t)

	var snap views.Snapshot
	doJSON(t, http.MethodPost, ts.URL+"/api/views", map[string]string{"slug": "max_flow"}, &snap)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/views/" + snap.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readUntil(t, conn, func(f wsFrame) bool { return f.Type == "state" })

	big := `{"type":"sample","anchors":{"x":"` + strings.Repeat("a", maxSampleBytes) + `"}}`
	// The server may drop the connection before the whole frame is written.
	conn.WriteMessage(websocket.TextMessage, []byte(big))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("socket stayed open after an oversized frame")
			}
			break
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for vm.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected view to be released after an oversized frame")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
