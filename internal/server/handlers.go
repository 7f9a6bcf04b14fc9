package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paulmach/webmap"
	"github.com/paulmach/webmap/basemap"
	"github.com/paulmach/webmap/classify"
	"github.com/paulmach/webmap/colorramp"
	"github.com/paulmach/webmap/dataset"
	"github.com/paulmach/webmap/theme"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// Handler holds the API handlers.
type Handler struct {
	store  *dataset.Store
	logger *slog.Logger
}

// Register adds every route to the api.
func Register(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Post(api, "/api/v1/classify", h.Classify, huma.OperationTags("styling"))
	huma.Post(api, "/api/v1/ramp", h.Ramp, huma.OperationTags("styling"))
	huma.Post(api, "/api/v1/maps/render", h.Render, huma.OperationTags("maps"))
	huma.Get(api, "/api/v1/datasets", h.GetDatasets, huma.OperationTags("datasets"))
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

func (h *Handler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

type ClassifyInput struct {
	Body struct {
		Values []float64 `json:"values" doc:"Values to classify"`
		Method string    `json:"method,omitempty" doc:"Segment method" example:"offset"`
		Count  int       `json:"count,omitempty" doc:"Number of classes" example:"6"`
	}
}

type ClassifyBody struct {
	Breaks  []float64          `json:"breaks" doc:"Class boundaries, classes+1 values"`
	Classes int                `json:"classes" doc:"Number of classes"`
	Stats   map[string]float64 `json:"stats" doc:"Summary statistics of the values"`
}

func (h *Handler) Classify(ctx context.Context, input *ClassifyInput) (*struct{ Body ClassifyBody }, error) {
	method := classify.EqualInterval
	if input.Body.Method != "" {
		var ok bool
		method, ok = classify.ParseMethod(input.Body.Method)
		if !ok {
			return nil, huma.Error400BadRequest("unknown method: " + input.Body.Method)
		}
	}

	count := input.Body.Count
	if count <= 0 {
		count = theme.DefaultSegmentCount
	}

	if count > classify.MaxCount {
		return nil, huma.Error400BadRequest(fmt.Sprintf("count must be at most %d", classify.MaxCount))
	}

	breaks, err := classify.Classify(input.Body.Values, method, count)
	if errors.Cause(err) == classify.ErrUnsupported {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	body := ClassifyBody{
		Breaks:  []float64(breaks),
		Classes: breaks.Classes(),
		Stats:   make(map[string]float64),
	}
	if body.Breaks == nil {
		body.Breaks = []float64{}
	}

	for name, s := range map[string]classify.Stat{
		"max": classify.Max, "min": classify.Min, "mean": classify.Mean,
		"median": classify.Median, "sum": classify.Sum, "count": classify.Count,
	} {
		body.Stats[name] = classify.Statistic(input.Body.Values, s)
	}

	return &struct{ Body ClassifyBody }{Body: body}, nil
}

type RampInput struct {
	Body struct {
		Colors []string `json:"colors" doc:"Anchor colors" example:"[\"#ffffff\",\"#ff0000\"]"`
		Count  int      `json:"count" doc:"Number of colors" example:"5"`
		Mode   string   `json:"mode,omitempty" enum:"categorical,ranged" doc:"Sampling mode"`
	}
}

type RampBody struct {
	Colors []string `json:"colors" doc:"Expanded colors"`
}

func (h *Handler) Ramp(ctx context.Context, input *RampInput) (*struct{ Body RampBody }, error) {
	mode := colorramp.Ranged
	if strings.EqualFold(input.Body.Mode, "categorical") {
		mode = colorramp.Categorical
	}

	colors, err := colorramp.Expand(input.Body.Colors, input.Body.Count, mode)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	return &struct{ Body RampBody }{Body: RampBody{Colors: colors}}, nil
}

type RenderInput struct {
	RawBody []byte `contentType:"application/json"`
}

type LayerBody struct {
	Name     string                     `json:"name"`
	Status   string                     `json:"status"`
	Error    string                     `json:"error,omitempty"`
	Kind     string                     `json:"kind,omitempty"`
	Groups   []theme.Group              `json:"groups,omitempty"`
	Heat     *theme.HeatStyle           `json:"heat,omitempty"`
	Tile     *basemap.TileSource        `json:"tile,omitempty"`
	Features *geojson.FeatureCollection `json:"features,omitempty"`
}

type RenderBody struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Projection string              `json:"projection"`
	Base       *basemap.TileSource `json:"base,omitempty"`
	Layers     []LayerBody         `json:"layers"`
}

// Render processes a map document posted as json or yaml.
func (h *Handler) Render(ctx context.Context, input *RenderInput) (*struct{ Body RenderBody }, error) {
	doc, err := webmap.ParseDocument(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	opts := []webmap.Option{webmap.WithLogger(h.logger)}
	if h.store != nil {
		opts = append(opts, webmap.WithQuerier(h.store))
	}

	m, err := webmap.New("", opts...).Process(ctx, doc)
	if err != nil {
		return nil, huma.Error500InternalServerError("render failed", err)
	}

	return &struct{ Body RenderBody }{Body: NewRenderBody(m)}, nil
}

// NewRenderBody converts the map with each feature layer's styles baked in.
func NewRenderBody(m *webmap.Map) RenderBody {
	body := RenderBody{
		ID:         m.ID,
		Title:      m.Title,
		Projection: m.Projection,
		Base:       m.Base,
		Layers:     make([]LayerBody, 0, len(m.Layers)),
	}

	for _, l := range m.Layers {
		lb := LayerBody{
			Name:   l.Name,
			Status: l.Status.String(),
			Tile:   l.Tile,
		}

		if l.Err != nil {
			lb.Error = l.Err.Error()
		}

		if l.Style != nil {
			lb.Kind = l.Style.Kind.String()
			lb.Groups = l.Style.Groups
			lb.Heat = l.Style.Heat
		}

		if l.Tile == nil {
			lb.Features = m.FeatureCollection(l)
		}

		body.Layers = append(body.Layers, lb)
	}

	return body
}

type DatasetsBody struct {
	Datasets []string `json:"datasets" doc:"Dataset names"`
}

func (h *Handler) GetDatasets(ctx context.Context, input *struct{}) (*struct{ Body DatasetsBody }, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("dataset store not available")
	}

	names, err := h.store.Datasets(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list datasets", err)
	}

	if names == nil {
		names = []string{}
	}

	return &struct{ Body DatasetsBody }{Body: DatasetsBody{Datasets: names}}, nil
}
