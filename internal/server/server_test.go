package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/webmap/dataset"
	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/internal/log"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/paulmach/orb"
)

func testAPI(t *testing.T, store *dataset.Store) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	Register(api, &Handler{store: store, logger: log.Discard()})
	return api
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal error: %v: %s", err, resp.Body.String())
	}
}

func TestHealth(t *testing.T) {
	resp := testAPI(t, nil).Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("incorrect status: %d", resp.Code)
	}

	body := HealthBody{}
	decode(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("incorrect body: %+v", body)
	}
}

func TestClassify(t *testing.T) {
	api := testAPI(t, nil)

	cases := []struct {
		name   string
		body   map[string]interface{}
		code   int
		breaks int
	}{
		{
			name:   "equal interval",
			body:   map[string]interface{}{"values": []float64{1, 2, 3, 4, 5, 6}, "count": 3},
			code:   http.StatusOK,
			breaks: 4,
		},
		{
			name:   "default count",
			body:   map[string]interface{}{"values": []float64{1, 2, 3, 4, 5, 6, 7, 8}, "method": "square root"},
			code:   http.StatusOK,
			breaks: 7,
		},
		{
			name: "unknown method",
			body: map[string]interface{}{"values": []float64{1, 2}, "method": "magic"},
			code: http.StatusBadRequest,
		},
		{
			name: "count too large",
			body: map[string]interface{}{"values": []float64{1, 2, 3}, "method": "natural breaks", "count": 1000000},
			code: http.StatusBadRequest,
		},
		{
			name: "negative log",
			body: map[string]interface{}{"values": []float64{-1, 2, 3}, "method": "logarithm", "count": 2},
			code: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.Post("/api/v1/classify", tc.body)
			if resp.Code != tc.code {
				t.Fatalf("incorrect status: %d != %d: %s", resp.Code, tc.code, resp.Body.String())
			}

			if tc.code != http.StatusOK {
				return
			}

			body := ClassifyBody{}
			decode(t, resp, &body)
			if len(body.Breaks) != tc.breaks {
				t.Errorf("incorrect breaks: %v", body.Breaks)
			}

			if body.Stats["count"] != float64(len(tc.body["values"].([]float64))) {
				t.Errorf("incorrect stats: %v", body.Stats)
			}
		})
	}
}

func TestRamp(t *testing.T) {
	api := testAPI(t, nil)

	resp := api.Post("/api/v1/ramp", map[string]interface{}{
		"colors": []string{"#000000", "#ffffff"},
		"count":  3,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("incorrect status: %d: %s", resp.Code, resp.Body.String())
	}

	body := RampBody{}
	decode(t, resp, &body)
	if len(body.Colors) != 3 || body.Colors[1] != "#808080" {
		t.Errorf("incorrect colors: %v", body.Colors)
	}

	resp = api.Post("/api/v1/ramp", map[string]interface{}{
		"colors": []string{"not a color"},
		"count":  3,
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("incorrect status: %d", resp.Code)
	}
}

const renderDocument = `{
	"title": "cities",
	"projection": "EPSG:4326",
	"baseLayer": {"layerType": "OSM"},
	"layers": [
		{
			"layerType": "UNIQUE",
			"name": "kinds",
			"featureType": "POINT",
			"themeSetting": {"themeField": "kind"},
			"dataSource": {"type": "REST_DATA", "url": "local", "dataSourceName": "cities"}
		},
		{
			"layerType": "VECTOR",
			"name": "broken",
			"dataSource": {"type": "REST_DATA", "url": "local", "dataSourceName": "missing"}
		}
	]
}`

func TestRender(t *testing.T) {
	store, err := dataset.Open("")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	var features []*feature.Feature
	for i, kind := range []string{"a", "b", "a"} {
		f := feature.New(orb.Point{float64(i), 1})
		f.Properties["kind"] = kind
		features = append(features, f)
	}

	if err := store.Import(context.Background(), "cities", features); err != nil {
		t.Fatalf("import error: %v", err)
	}

	api := testAPI(t, store)
	resp := api.Post("/api/v1/maps/render", "Content-Type: application/json", strings.NewReader(renderDocument))
	if resp.Code != http.StatusOK {
		t.Fatalf("incorrect status: %d: %s", resp.Code, resp.Body.String())
	}

	body := RenderBody{}
	decode(t, resp, &body)

	if body.ID == "" || body.Base == nil {
		t.Errorf("incorrect map: %+v", body)
	}

	if len(body.Layers) != 2 {
		t.Fatalf("incorrect layers: %d", len(body.Layers))
	}

	kinds := body.Layers[0]
	if kinds.Status != "ready" || len(kinds.Groups) != 2 || len(kinds.Features.Features) != 3 {
		t.Errorf("incorrect layer: %+v", kinds)
	}

	broken := body.Layers[1]
	if broken.Status != "failed" || broken.Error == "" {
		t.Errorf("incorrect failed layer: %+v", broken)
	}

	resp = api.Post("/api/v1/maps/render", "Content-Type: application/json", strings.NewReader(`{"title": 1}`))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("invalid document should be a bad request: %d", resp.Code)
	}
}

func TestDatasets(t *testing.T) {
	resp := testAPI(t, nil).Get("/api/v1/datasets")
	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("incorrect status without store: %d", resp.Code)
	}

	store, err := dataset.Open("")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Import(context.Background(), "a", []*feature.Feature{feature.New(orb.Point{1, 2})}); err != nil {
		t.Fatalf("import error: %v", err)
	}

	resp = testAPI(t, store).Get("/api/v1/datasets")
	body := DatasetsBody{}
	decode(t, resp, &body)
	if len(body.Datasets) != 1 || body.Datasets[0] != "a" {
		t.Errorf("incorrect datasets: %v", body.Datasets)
	}
}

func TestServer(t *testing.T) {
	s := New(Config{Logger: log.Discard()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("incorrect status: %d", w.Code)
	}
}
