package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/ifcwatch/pkg/cache"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/nodestate"
	"github.com/matzehuels/ifcwatch/pkg/observability"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

const wallsDoc = `[
	{"expressId": 1, "type": "IfcWall", "properties": {"Name": "North wall"}},
	{"expressId": 2, "type": "IfcWall", "properties": {"Name": "South wall"}}
]`

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(nodestate.NewMemoryStore())
	srv := httptest.NewServer(NewServer(hub, nil, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, hub
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, string(raw)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestInputAndSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPut, srv.URL+"/nodes/watch-1/input", "application/json", wallsDoc)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT input = %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/nodes/watch-1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET snapshot = %d %s", resp.StatusCode, body)
	}
	snap := decode(t, body)
	input := snap["input"].(map[string]any)
	if input["type"] != "array" || input["count"] != float64(2) {
		t.Errorf("input = %v, want array of 2", input)
	}
	if snap["mode"] != "table" {
		t.Errorf("mode = %v, want table", snap["mode"])
	}
	if snap["version"] != float64(1) {
		t.Errorf("version = %v, want 1", snap["version"])
	}
}

func TestInputFormats(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		query       string
		body        string
		wantStatus  int
		wantKind    payload.Kind
	}{
		{"json", "application/json", "", `{"a": 1}`, http.StatusNoContent, payload.KindObject},
		{"yaml", "application/yaml", "", "a: 1\nb: [1, 2]\n", http.StatusNoContent, payload.KindObject},
		{"envelope", "application/json", "", `{"type": "primitive", "value": 42}`, http.StatusNoContent, payload.KindPrimitive},
		{"kind override", "application/json", "?kind=propertyResults", `{"propertyName": "X", "elements": []}`, http.StatusNoContent, payload.KindPropertyResults},
		{"bad kind", "application/json", "?kind=nope", `{}`, http.StatusBadRequest, ""},
		{"bad json", "application/json", "", `{"a":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hub := newTestServer(t)
			resp, body := do(t, http.MethodPut, srv.URL+"/nodes/n1/input"+tt.query, tt.contentType, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d %s, want %d", resp.StatusCode, body, tt.wantStatus)
			}
			if tt.wantKind == "" {
				return
			}
			snap, err := hub.Snapshot(context.Background(), "n1")
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if snap.Input.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", snap.Input.Kind, tt.wantKind)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown node", http.MethodGet, "/nodes/missing", "", http.StatusNotFound, "NODE_NOT_FOUND"},
		{"bad node id", http.MethodPut, "/nodes/a..b/input", "[]", http.StatusBadRequest, "INVALID_NODE_ID"},
		{"bad status", http.MethodPut, "/nodes/n1/status", `{"status": "sleeping"}`, http.StatusBadRequest, "INVALID_STATUS"},
		{"bad mode", http.MethodPut, "/nodes/n1/mode", `{"mode": "tree"}`, http.StatusBadRequest, "INVALID_MODE"},
		{"empty mode body", http.MethodPut, "/nodes/n1/mode", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad width", http.MethodGet, "/nodes/n1/render?width=wide", "", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, "application/json", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d %s, want %d", resp.StatusCode, body, tt.wantStatus)
			}
			if got := decode(t, body)["error"]; got != tt.wantCode {
				t.Errorf("error = %v, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestModePersists(t *testing.T) {
	srv, hub := newTestServer(t)
	do(t, http.MethodPatch, srv.URL+"/nodes/n1", "application/json", `{"label": "Walls"}`)

	resp, body := do(t, http.MethodPut, srv.URL+"/nodes/n1/mode", "application/json", `{"mode": "summary"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT mode = %d %s", resp.StatusCode, body)
	}

	data, _ := hub.Store().Get(context.Background(), "n1")
	if inspect.ModeFromNodeData(data) != inspect.ModeSummary {
		t.Errorf("stored data = %v, want summary mode", data)
	}
	if data["label"] != "Walls" {
		t.Errorf("label lost: %v", data)
	}
}

func TestRender(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/nodes/n1/input", "application/json", wallsDoc)

	resp, body := do(t, http.MethodGet, srv.URL+"/nodes/n1/render?width=60", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render = %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(body, "North wall") {
		t.Errorf("render missing record name:\n%s", body)
	}

	do(t, http.MethodPut, srv.URL+"/nodes/n1/status", "application/json", `{"status": "error", "error": "extraction failed"}`)
	_, body = do(t, http.MethodGet, srv.URL+"/nodes/n1/render", "", "")
	if !strings.Contains(body, "extraction failed") || strings.Contains(body, "North wall") {
		t.Errorf("error status should replace data:\n%s", body)
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)

	do(t, http.MethodPatch, srv.URL+"/nodes/n1", "application/json", `{"label": "Empty"}`)
	resp, _ := do(t, http.MethodGet, srv.URL+"/nodes/n1/export", "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("export of absent input = %d, want 204", resp.StatusCode)
	}

	do(t, http.MethodPut, srv.URL+"/nodes/n1/input", "application/json", `{"b": 1, "a": [1, 2]}`)
	resp, body := do(t, http.MethodGet, srv.URL+"/nodes/n1/export", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d %s", resp.StatusCode, body)
	}
	if want := "{\n  \"b\": 1,\n  \"a\": [\n    1,\n    2\n  ]\n}"; body != want {
		t.Errorf("export = %q, want %q", body, want)
	}
}

func TestCreateAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/nodes", "application/json", `{"label": "Doors"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /nodes = %d %s", resp.StatusCode, body)
	}
	id, _ := decode(t, body)["nodeId"].(string)
	if id == "" {
		t.Fatalf("no nodeId in %s", body)
	}
	if loc := resp.Header.Get("Location"); loc != "/nodes/"+id {
		t.Errorf("Location = %q", loc)
	}

	do(t, http.MethodPut, srv.URL+"/nodes/watch-2/input", "application/json", `[]`)

	_, body = do(t, http.MethodGet, srv.URL+"/nodes", "", "")
	var list struct {
		Nodes []string `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	found := map[string]bool{}
	for _, n := range list.Nodes {
		found[n] = true
	}
	if !found[id] || !found["watch-2"] {
		t.Errorf("nodes = %v, want %s and watch-2", list.Nodes, id)
	}
}

func TestSubscribe(t *testing.T) {
	hub := NewHub(nodestate.NewMemoryStore())
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, "n1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	// A fresh node has an initial snapshot with version 0.
	select {
	case snap := <-ch:
		if snap.Version != 0 {
			t.Errorf("initial version = %d", snap.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	in, _ := payload.Parse([]byte(`[1, 2, 3]`), payload.FormatJSON)
	hub.SetInput(ctx, "n1", in)
	hub.SetStatus(ctx, "n1", inspect.StatusState{Status: inspect.StatusSuccess})

	// Only the latest snapshot is retained for a slow reader.
	select {
	case snap := <-ch:
		if snap.Version != 2 || snap.Status.Status != inspect.StatusSuccess {
			t.Errorf("snapshot = %+v, want version 2 success", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after update")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
	cancel()
}

type recordingFeedHooks struct {
	observability.NoopFeedHooks
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (h *recordingFeedHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+strings.TrimSuffix(route, "/"))
	h.codes = append(h.codes, status)
}

func TestFeedHooks(t *testing.T) {
	hooks := &recordingFeedHooks{}
	observability.SetFeedHooks(hooks)
	t.Cleanup(observability.Reset)

	srv, _ := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/nodes/n1/input", "application/json", `[]`)
	do(t, http.MethodGet, srv.URL+"/nodes/unknown", "", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"PUT /nodes/{id}/input", "GET /nodes/{id}"}
	if len(hooks.routes) != len(want) {
		t.Fatalf("routes = %v, want %v", hooks.routes, want)
	}
	for i := range want {
		if hooks.routes[i] != want[i] {
			t.Errorf("route[%d] = %q, want %q", i, hooks.routes[i], want[i])
		}
	}
	if hooks.codes[0] != http.StatusNoContent || hooks.codes[1] != http.StatusNotFound {
		t.Errorf("codes = %v", hooks.codes)
	}
}

func TestRenderFrameCache(t *testing.T) {
	hub := NewHub(nodestate.NewMemoryStore())
	renders := 0
	s := NewServer(hub, func(ctx context.Context, snap Snapshot, width int) string {
		renders++
		return PaintBlock(ctx, snap, width)
	}, nil)
	s.CacheFrames(cache.NewMemoryCache(0), 0)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	do(t, http.MethodPut, srv.URL+"/nodes/n1/input", "application/json", wallsDoc)

	tests := []struct {
		name    string
		url     string
		want    string
		renders int
	}{
		{"first render", "/nodes/n1/render?width=60", "miss", 1},
		{"same state", "/nodes/n1/render?width=60", "hit", 1},
		{"other width", "/nodes/n1/render?width=70", "miss", 2},
	}
	for _, tt := range tests {
		resp, body := do(t, http.MethodGet, srv.URL+tt.url, "", "")
		if got := resp.Header.Get("X-Frame-Cache"); got != tt.want {
			t.Errorf("%s: X-Frame-Cache = %q, want %q", tt.name, got, tt.want)
		}
		if renders != tt.renders {
			t.Errorf("%s: renders = %d, want %d", tt.name, renders, tt.renders)
		}
		if !strings.Contains(body, "North wall") {
			t.Errorf("%s: frame missing record:\n%s", tt.name, body)
		}
	}

	do(t, http.MethodPut, srv.URL+"/nodes/n1/mode", "application/json", `{"mode": "summary"}`)
	resp, _ := do(t, http.MethodGet, srv.URL+"/nodes/n1/render?width=60", "", "")
	if got := resp.Header.Get("X-Frame-Cache"); got != "miss" {
		t.Errorf("after mode change X-Frame-Cache = %q, want miss", got)
	}
}

func TestPaintBlockStatus(t *testing.T) {
	in, err := payload.Parse([]byte(wallsDoc), payload.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	pct := 40.0

	tests := []struct {
		name   string
		status inspect.StatusState
		want   []string
		absent string
	}{
		{"working", inspect.StatusState{Status: inspect.StatusWorking}, []string{inspect.DefaultLoadingMessage}, "North wall"},
		{"working with progress", inspect.StatusState{
			Status:   inspect.StatusWorking,
			Progress: &inspect.Progress{Percentage: pct, Message: "Parsing walls"},
		}, []string{inspect.DefaultLoadingMessage, "40%", "Parsing walls"}, "North wall"},
		{"error on success", inspect.StatusState{Status: inspect.StatusSuccess, Error: "stale"}, []string{"stale"}, "North wall"},
		{"success", inspect.StatusState{Status: inspect.StatusSuccess}, []string{"North wall"}, inspect.DefaultLoadingMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := PaintBlock(context.Background(), Snapshot{NodeID: "n1", Input: in, Status: tt.status}, 60)
			for _, want := range tt.want {
				if !strings.Contains(frame, want) {
					t.Errorf("frame missing %q:\n%s", want, frame)
				}
			}
			if strings.Contains(frame, tt.absent) {
				t.Errorf("frame should not contain %q:\n%s", tt.absent, frame)
			}
		})
	}
}
