package source

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// DefaultAttributeFilter selects every feature.
const DefaultAttributeFilter = "SMID > 0"

// MaxQueryFeatures is the upper index of a query.
const MaxQueryFeatures = 100000

// A Querier runs SQL style feature queries. The result is shaped
// {result: {features: ...}}.
type Querier interface {
	QueryBySQL(ctx context.Context, url string, datasetNames []string, attributeFilter string) ([]byte, error)
}

// HTTPQuerier queries a data service's featureResults endpoint.
type HTTPQuerier struct {
	Client *Client
}

var _ Querier = &HTTPQuerier{}

// NewHTTPQuerier creates a querier using the client.
func NewHTTPQuerier(c *Client) *HTTPQuerier {
	if c == nil {
		c = NewClient()
	}

	return &HTTPQuerier{Client: c}
}

type queryRequest struct {
	GetFeatureMode string         `json:"getFeatureMode"`
	DatasetNames   []string       `json:"datasetNames"`
	MaxFeatures    int            `json:"maxFeatures"`
	QueryParameter queryParameter `json:"queryParameter"`
}

type queryParameter struct {
	AttributeFilter string `json:"attributeFilter"`
}

// QueryBySQL posts the query and wraps the service response as the result.
func (q *HTTPQuerier) QueryBySQL(ctx context.Context, url string, datasetNames []string, attributeFilter string) ([]byte, error) {
	if len(datasetNames) == 0 {
		return nil, errors.New("query: no dataset names")
	}

	if strings.TrimSpace(attributeFilter) == "" {
		attributeFilter = DefaultAttributeFilter
	}

	endpoint := strings.TrimSuffix(url, "/") + "/featureResults.json?returnContent=true&fromIndex=0&toIndex=100000"
	body := queryRequest{
		GetFeatureMode: "SQL",
		DatasetNames:   datasetNames,
		MaxFeatures:    MaxQueryFeatures,
		QueryParameter: queryParameter{AttributeFilter: attributeFilter},
	}

	resp, err := q.Client.Post(ctx, endpoint, body, Options{})
	if err != nil {
		return nil, errors.WithMessage(err, "query")
	}

	var check map[string]interface{}
	if err := resp.JSON(&check); err != nil {
		return nil, errors.WithMessage(err, "query")
	}

	result := make([]byte, 0, len(resp.Body)+11)
	result = append(result, `{"result":`...)
	result = append(result, resp.Body...)
	return append(result, '}'), nil
}
