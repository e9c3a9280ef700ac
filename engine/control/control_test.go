package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-volume/engine/colormap"
	"github.com/Carmen-Shannon/oxy-volume/engine/loader"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/profiler"
	"github.com/Carmen-Shannon/oxy-volume/engine/volume"
)

type fakeViewer struct {
	mu          sync.Mutex
	store       *params.Store
	loads       []string
	screenshots []string
	status      loader.Status
	ldr         loader.Loader
}

func newFakeViewer() *fakeViewer {
	return &fakeViewer{store: params.NewStore(params.Defaults()), ldr: loader.NewLoader()}
}

func (f *fakeViewer) LoadVolume(ref string) *loader.Future {
	f.mu.Lock()
	f.loads = append(f.loads, ref)
	f.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return f.ldr.LoadRef(ctx, ref)
}

func (f *fakeViewer) VolumeStatus() loader.Status {
	return f.status
}

func (f *fakeViewer) SetMode(m params.Mode) {
	f.store.SetMode(m)
}

func (f *fakeViewer) SetParameters(values map[string]float32) (params.Parameters, error) {
	return f.store.SetAll(values)
}

func (f *fakeViewer) Parameters() params.Parameters {
	return f.store.Snapshot()
}

func (f *fakeViewer) SetColormap(name string) error {
	if _, ok := colormap.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", colormap.ErrUnknownColormap, name)
	}
	f.store.SetColormap(name)
	return nil
}

func (f *fakeViewer) RequestScreenshot(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, path)
}

func (f *fakeViewer) Stats() profiler.Stats {
	return profiler.Stats{FPS: 60}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestLoadVolume(t *testing.T) {
	v := newFakeViewer()
	s := NewServer(v)

	rec := do(t, s, http.MethodPost, "/volume", `{"source":"a.bin"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	first := decode[loadResponse](t, rec)
	rec = do(t, s, http.MethodPost, "/volume", `{"source":"b.bin"}`)
	second := decode[loadResponse](t, rec)

	if first.Source != "a.bin" || second.Source != "b.bin" {
		t.Errorf("sources = %q, %q", first.Source, second.Source)
	}
	if second.Generation <= first.Generation {
		t.Errorf("generations not increasing: %d then %d", first.Generation, second.Generation)
	}
	if len(v.loads) != 2 {
		t.Errorf("loads = %v", v.loads)
	}
}

func TestLoadVolumeRequiresSource(t *testing.T) {
	s := NewServer(newFakeViewer())
	for _, body := range []string{`{}`, `{"source":""}`, `not json`} {
		rec := do(t, s, http.MethodPost, "/volume", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d", body, rec.Code)
		}
	}
}

func TestVolumeStatus(t *testing.T) {
	v := newFakeViewer()
	s := NewServer(v)

	if rec := do(t, s, http.MethodGet, "/volume", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("empty status = %d", rec.Code)
	}

	info := volume.Info{Dims: [3]int{4, 2, 1}}
	v.status = loader.Status{Volume: &info, Source: "a.bin", Generation: 3, Progress: 100}
	rec := do(t, s, http.MethodGet, "/volume", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[loader.Status](t, rec)
	if got.Generation != 3 || got.Source != "a.bin" || got.Volume == nil || got.Volume.Dims != info.Dims {
		t.Errorf("got %+v", got)
	}
}

func TestSetMode(t *testing.T) {
	v := newFakeViewer()
	s := NewServer(v)

	rec := do(t, s, http.MethodPut, "/mode", `{"mode":"isosurface"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if v.Parameters().Mode != params.ModeIsosurface {
		t.Errorf("mode = %v", v.Parameters().Mode)
	}

	rec = do(t, s, http.MethodPut, "/mode", `{"mode":"wireframe"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode status = %d", rec.Code)
	}
}

func TestPatchParams(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, p params.Parameters)
	}{
		{
			name:       "sets values",
			body:       `{"rho_max": 0.5, "iso_value": 0.25}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, p params.Parameters) {
				if p.RhoMax != 0.5 || p.IsoValue != 0.25 {
					t.Errorf("got rho_max %v iso_value %v", p.RhoMax, p.IsoValue)
				}
			},
		},
		{
			name:       "clamps",
			body:       `{"step_scale": 100}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, p params.Parameters) {
				if p.StepScale != 4 {
					t.Errorf("step_scale = %v", p.StepScale)
				}
			},
		},
		{
			name:       "unknown name applies nothing",
			body:       `{"rho_max": 0.5, "gamma": 2}`,
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, p params.Parameters) {
				if p.RhoMax != params.Defaults().RhoMax {
					t.Errorf("rho_max changed to %v", p.RhoMax)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newFakeViewer()
			s := NewServer(v)
			rec := do(t, s, http.MethodPatch, "/params", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			tt.check(t, v.Parameters())
		})
	}
}

func TestPatchParamsAlphaWindowIsStoredAsSent(t *testing.T) {
	tests := []struct {
		name   string
		bodies []string
		lo, hi float32
	}{
		{"one request", []string{`{"alpha_lo": 0.8, "alpha_hi": 0.9}`}, 0.8, 0.9},
		{"one request reversed keys", []string{`{"alpha_hi": 0.9, "alpha_lo": 0.8}`}, 0.8, 0.9},
		{"inverted window", []string{`{"alpha_lo": 0.9, "alpha_hi": 0.1}`}, 0.9, 0.1},
		{"lo then hi", []string{`{"alpha_lo": 0.8}`, `{"alpha_hi": 0.9}`}, 0.8, 0.9},
		{"hi then lo", []string{`{"alpha_hi": 0.9}`, `{"alpha_lo": 0.8}`}, 0.8, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeat so a map-order dependency cannot pass by chance.
			for range 50 {
				v := newFakeViewer()
				s := NewServer(v)
				for _, body := range tt.bodies {
					if rec := do(t, s, http.MethodPatch, "/params", body); rec.Code != http.StatusOK {
						t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
					}
				}
				p := v.Parameters()
				if p.AlphaLo != tt.lo || p.AlphaHi != tt.hi {
					t.Fatalf("alpha = [%v, %v], want [%v, %v]", p.AlphaLo, p.AlphaHi, tt.lo, tt.hi)
				}
			}
		})
	}
}

func TestGetParams(t *testing.T) {
	s := NewServer(newFakeViewer())
	rec := do(t, s, http.MethodGet, "/params", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[params.Parameters](t, rec)
	if got != params.Defaults() {
		t.Errorf("got %+v", got)
	}
}

func TestColormaps(t *testing.T) {
	v := newFakeViewer()
	s := NewServer(v)

	names := colormap.Names()
	target := names[len(names)-1]

	rec := do(t, s, http.MethodPut, "/colormap", fmt.Sprintf(`{"name":%q}`, target))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodPut, "/colormap", `{"name":"No Such Map"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown colormap status = %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Error == "" {
		t.Error("missing error message")
	}

	list := decode[colormapList](t, do(t, s, http.MethodGet, "/colormaps", ""))
	if list.Current != target {
		t.Errorf("current = %q, want %q", list.Current, target)
	}
	if len(list.Colormaps) != len(names) {
		t.Errorf("listed %d colormaps, want %d", len(list.Colormaps), len(names))
	}
}

func TestScreenshot(t *testing.T) {
	v := newFakeViewer()
	s := NewServer(v)

	if rec := do(t, s, http.MethodPost, "/screenshot", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/screenshot", `{"path":"out.png"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(v.screenshots) != 2 || v.screenshots[0] != "" || v.screenshots[1] != "out.png" {
		t.Errorf("screenshots = %q", v.screenshots)
	}
}

func TestStats(t *testing.T) {
	s := NewServer(newFakeViewer())
	got := decode[profiler.Stats](t, do(t, s, http.MethodGet, "/stats", ""))
	if got.FPS != 60 {
		t.Errorf("fps = %v", got.FPS)
	}
}
