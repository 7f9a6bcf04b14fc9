package webmap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/paulmach/webmap/basemap"
	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/filter"
	"github.com/paulmach/webmap/ingest"
	"github.com/paulmach/webmap/internal/log"
	"github.com/paulmach/webmap/source"
	"github.com/paulmach/webmap/theme"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency is the number of layers processed at once.
const DefaultConcurrency = 8

// A LayerHook is called as each layer finishes, in completion order.
// Calls are serialized.
type LayerHook func(*Map, *Layer)

// WebMap loads a portal map document into a Map.
type WebMap struct {
	url string

	credentialKey   string
	credentialValue string

	callback    func(*Map)
	hook        LayerHook
	portal      *source.Portal
	querier     source.Querier
	logger      *slog.Logger
	concurrency int
}

// An Option configures the WebMap.
type Option func(*WebMap)

// WithCredential appends ?key=value to the map document url.
func WithCredential(key, value string) Option {
	return func(w *WebMap) {
		w.credentialKey = key
		w.credentialValue = value
	}
}

// WithCallback sets the function called once all the layers are added.
func WithCallback(fn func(*Map)) Option {
	return func(w *WebMap) {
		w.callback = fn
	}
}

// WithLayerHook sets the function called as each layer is added.
func WithLayerHook(fn LayerHook) Option {
	return func(w *WebMap) {
		w.hook = fn
	}
}

// WithPortal sets the portal used for documents and hosted datasets.
func WithPortal(p *source.Portal) Option {
	return func(w *WebMap) {
		w.portal = p
	}
}

// WithQuerier sets the service used by REST_DATA layers.
func WithQuerier(q source.Querier) Option {
	return func(w *WebMap) {
		w.querier = q
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *WebMap) {
		w.logger = l
	}
}

// WithConcurrency limits the number of layers processed at once.
func WithConcurrency(n int) Option {
	return func(w *WebMap) {
		w.concurrency = n
	}
}

// New creates a loader for the map document url. The portal root
// defaults to the part of the url before web/.
func New(mapURL string, opts ...Option) *WebMap {
	w := &WebMap{
		url:         mapURL,
		concurrency: DefaultConcurrency,
	}

	for _, o := range opts {
		o(w)
	}

	if w.logger == nil {
		w.logger = log.WithComponent("webmap")
	}

	if w.portal == nil {
		w.portal = source.NewPortal(PortalRoot(mapURL), source.NewClient(source.WithLogger(w.logger)))
	}

	if w.querier == nil {
		w.querier = source.NewHTTPQuerier(w.portal.Client)
	}

	if w.concurrency <= 0 {
		w.concurrency = DefaultConcurrency
	}

	return w
}

// Load fetches the map document and processes it. Only a failed document
// fetch or parse is returned as an error, the callback is not called then.
func (w *WebMap) Load(ctx context.Context) (*Map, error) {
	u := w.url
	if w.credentialKey != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + url.QueryEscape(w.credentialKey) + "=" + url.QueryEscape(w.credentialValue)
	}

	data, err := w.portal.Document(ctx, u)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to fetch document")
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	return w.Process(ctx, doc)
}

// Process adds the base layer and every layer of the document. Layers are
// processed concurrently, failures are stored on the layer. The callback is
// called exactly once, after every layer is done.
func (w *WebMap) Process(ctx context.Context, doc *Document) (*Map, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	m := &Map{
		ID:         uuid.NewString(),
		Title:      doc.Title,
		Projection: doc.Projection,
		Center:     orb.Point{doc.Center.X, doc.Center.Y},
		Extent:     doc.Extent.Bound(),
		Zoom:       doc.Level,
		Layers:     make([]*Layer, len(doc.Layers)),
	}
	m.Resolution, m.Scale = viewScale(doc.Projection, doc.Level)

	logger := w.logger.With(slog.String("map", m.ID))

	if doc.BaseLayer != nil {
		base, err := basemap.Resolve(*doc.BaseLayer, doc.Projection)
		if err != nil {
			logger.Warn("base layer", slog.Any("error", err))
		}
		m.Base = base
	}

	var hookMu sync.Mutex
	p := pool.NewWithResults[*Layer]().WithMaxGoroutines(w.concurrency)
	for i, ld := range doc.Layers {
		p.Go(func() *Layer {
			l := w.processLayer(ctx, doc, i, ld)
			if l.Err != nil {
				logger.Warn("layer",
					slog.Int("index", i),
					slog.String("name", l.Name),
					slog.String("status", l.Status.String()),
					slog.Any("error", l.Err))
			}

			if w.hook != nil {
				hookMu.Lock()
				w.hook(m, l)
				hookMu.Unlock()
			}

			return l
		})
	}

	// results come back in completion order
	for _, l := range p.Wait() {
		m.Layers[l.Index] = l
	}

	logger.Info("map loaded", slog.Int("layers", len(m.Layers)))

	if w.callback != nil {
		w.callback(m)
	}

	return m, nil
}

func (w *WebMap) processLayer(ctx context.Context, doc *Document, index int, ld *LayerDescriptor) *Layer {
	if ld == nil {
		return &Layer{Index: index, Status: Failed, Err: errors.New("undefined layer")}
	}

	l := &Layer{
		Index:      index,
		Name:       ld.Name,
		Descriptor: ld,
	}

	if ld.IsTile() {
		l.Tile, l.Err = basemap.Resolve(ld.tileDescriptor(), doc.Projection)
		if l.Err != nil {
			l.Status = Failed
		}
		return l
	}

	kind, ok := theme.ParseKind(ld.LayerType, ld.Style.Type)
	if !ok {
		l.Status = Failed
		l.Err = errors.Errorf("unsupported layer type: %q", ld.LayerType)
		return l
	}

	all, err := w.features(ctx, doc, ld)
	if err != nil {
		l.Status = Failed
		l.Err = err
		return l
	}

	l.Features, err = filter.Apply(all, ld.FilterCondition)
	if err != nil {
		l.Status = Empty
		l.Err = err
		return l
	}

	t, err := theme.FromDescriptor(theme.Descriptor{
		Kind:        kind,
		FeatureType: ld.FeatureType,
		Style:       ld.Style,
		Setting:     ld.ThemeSetting,
		Label:       ld.LabelStyle,
	})
	if err == nil {
		l.Style, err = theme.Resolve(t, all, l.Features)
	}

	switch {
	case err != nil:
		l.Status = Unstyled
		l.Err = err
	case len(l.Features) == 0:
		l.Status = Empty
	default:
		l.Status = Ready
	}

	return l
}

// features fetches and ingests the layer data into the map projection.
func (w *WebMap) features(ctx context.Context, doc *Document, ld *LayerDescriptor) ([]*feature.Feature, error) {
	ds := ld.DataSource
	if ds == nil {
		return nil, errors.New("layer has no data source")
	}

	switch {
	case strings.EqualFold(ds.Type, RESTData):
		data, err := w.querier.QueryBySQL(ctx, ds.URL, []string{ds.DataSourceName}, source.DefaultAttributeFilter)
		if err != nil {
			return nil, err
		}

		return ingest.QueryResult(data, ld.Projection, doc.Projection)
	case strings.EqualFold(ds.Type, OSMData):
		resp, err := w.portal.Client.Get(ctx, ds.URL, nil, source.Options{})
		if err != nil {
			return nil, err
		}

		return ingest.OSM(resp.Body, doc.Projection)
	case ds.ServerID != "":
		return w.portalFeatures(ctx, doc, ld)
	}

	return nil, errors.Errorf("unsupported data source: %q", ds.Type)
}

func (w *WebMap) portalFeatures(ctx context.Context, doc *Document, ld *LayerDescriptor) ([]*feature.Feature, error) {
	d, err := w.portal.Dataset(ctx, ld.DataSource.ServerID)
	if err != nil {
		return nil, err
	}

	content, err := d.ContentBytes()
	if err != nil {
		return nil, err
	}

	switch d.Type {
	case source.DatasetJSON, source.DatasetGeoJSON:
		return ingest.GeoJSON(content, ld.Projection, doc.Projection)
	case source.DatasetCSV, source.DatasetExcel:
		if ld.XYField == nil {
			return nil, errors.New("tabular layer without xyField")
		}

		t, err := table(content)
		if err != nil {
			return nil, err
		}

		return ingest.Tabular(t, ingest.TabularOptions{
			XField: ld.XYField.XField,
			YField: ld.XYField.YField,
			From:   ld.Projection,
			To:     doc.Projection,
		})
	}

	return nil, errors.Errorf("unsupported dataset type: %q", d.Type)
}

// table decodes {rows, colTitles} content or raw csv text.
func table(content []byte) (ingest.Table, error) {
	content = bytes.TrimSpace(content)
	if len(content) > 0 && content[0] != '{' {
		return ingest.CSV(string(content), ingest.CSVOptions{})
	}

	t := ingest.Table{}
	if err := json.Unmarshal(content, &t); err != nil {
		return t, errors.Wrap(err, "tabular content")
	}

	return t, nil
}

// PortalRoot is the map url up to web/, or the host root.
func PortalRoot(mapURL string) string {
	if i := strings.Index(mapURL, "/web/"); i >= 0 {
		return mapURL[:i+1]
	}

	u, err := url.Parse(mapURL)
	if err != nil || u.Host == "" {
		return "/"
	}

	return u.Scheme + "://" + u.Host + "/"
}
