package source

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Dataset types stored on the portal.
const (
	DatasetCSV     = "CSV"
	DatasetExcel   = "EXCEL"
	DatasetJSON    = "JSON"
	DatasetGeoJSON = "GEOJSON"
)

// A Dataset is the content of a portal hosted dataset.
type Dataset struct {
	Type string `json:"type"`

	// Content is an object, {rows, colTitles} for tabular data, or a
	// string holding the json document.
	Content json.RawMessage `json:"content"`
}

// ContentBytes returns the content with a json string unwrapped.
func (d *Dataset) ContentBytes() ([]byte, error) {
	c := bytes.TrimSpace(d.Content)
	if len(c) == 0 || c[0] != '"' {
		return c, nil
	}

	var s string
	if err := json.Unmarshal(c, &s); err != nil {
		return nil, errors.Wrap(err, "dataset content")
	}

	return []byte(s), nil
}

// Portal fetches map documents and hosted datasets.
type Portal struct {
	// Root is the portal root, e.g. http://host/iportal/.
	Root   string
	Client *Client
}

// NewPortal creates a portal client for the root url.
func NewPortal(root string, c *Client) *Portal {
	if c == nil {
		c = NewClient()
	}

	return &Portal{Root: root, Client: c}
}

// Document fetches the raw map document. Portal map urls get
// the .json suffix if they have none.
func (p *Portal) Document(ctx context.Context, mapURL string) ([]byte, error) {
	u, err := url.Parse(mapURL)
	if err != nil {
		return nil, errors.Wrap(err, "portal: invalid map url")
	}

	if !strings.HasSuffix(u.Path, ".json") {
		u.Path += ".json"
	}

	resp, err := p.Client.Get(ctx, u.String(), nil, Options{WithCredentials: true})
	if err != nil {
		return nil, errors.WithMessage(err, "portal: map document")
	}

	var check json.RawMessage
	if err := resp.JSON(&check); err != nil {
		return nil, errors.WithMessage(err, "portal: map document")
	}

	return resp.Body, nil
}

// Dataset fetches the content of a hosted dataset.
func (p *Portal) Dataset(ctx context.Context, serverID string) (*Dataset, error) {
	if serverID == "" {
		return nil, errors.New("portal: missing dataset id")
	}

	u := p.DatasetURL(serverID)
	resp, err := p.Client.Get(ctx, u, nil, Options{WithCredentials: true})
	if err != nil {
		return nil, errors.WithMessage(err, "portal: dataset "+serverID)
	}

	d := &Dataset{}
	if err := resp.JSON(d); err != nil {
		return nil, errors.WithMessage(err, "portal: dataset "+serverID)
	}

	if d.Type == "" {
		return nil, errors.Errorf("portal: dataset %s: missing type", serverID)
	}
	d.Type = strings.ToUpper(d.Type)

	return d, nil
}

// DatasetURL is the content url of a hosted dataset.
func (p *Portal) DatasetURL(serverID string) string {
	root := p.Root
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}

	return root + "web/datas/" + url.PathEscape(serverID) + "/content.json?pageSize=9999999&currentPage=1"
}
