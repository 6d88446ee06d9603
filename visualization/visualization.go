// Package visualization holds the request and response types of the
// visualization cache and builds its cache keys.
package visualization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	cache "github.com/pxgraf/task-cache"
	"github.com/pxgraf/task-cache/api"
)

// TableReference identifies a statistics table inside a database hierarchy.
type TableReference struct {
	Name      string   `json:"name"`
	Hierarchy []string `json:"hierarchy"`
}

func (r TableReference) String() string {
	return strings.Join(append(append([]string{}, r.Hierarchy...), r.Name), "/")
}

// DimensionQuery selects values of one dimension.
type DimensionQuery struct {
	Selection string   `json:"selection"`
	Values    []string `json:"values,omitempty"`
}

// Settings are the visualization choices that shape the response.
type Settings struct {
	VisualizationType   string              `json:"visualizationType"`
	Pivot               bool                `json:"pivot"`
	CutYAxis            bool                `json:"cutYAxis"`
	MultiselectableCode string              `json:"multiselectableCode,omitempty"`
	Sorting             string              `json:"sorting,omitempty"`
	DefaultSelectables  map[string][]string `json:"defaultSelectables,omitempty"`
}

// Request is everything that affects a computed visualization.
type Request struct {
	Table    TableReference            `json:"table"`
	Query    map[string]DimensionQuery `json:"query"`
	Settings Settings                  `json:"settings"`
	Language string                    `json:"language"`
}

/*
Key encodes every input of the request into a cache key of the form
"<table path>:<sha256>". Map fields are encoded with sorted keys, so two
equal requests always produce the same key.
*/
func (r Request) Key() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode visualization request: %w", err)
	}
	sum := sha256.Sum256(b)
	return r.Table.String() + ":" + hex.EncodeToString(sum[:]), nil
}

// Response is a chart-ready visualization payload.
type Response struct {
	Table           TableReference `json:"table"`
	Header          string         `json:"header"`
	Columns         []string       `json:"columns"`
	Rows            []string       `json:"rows"`
	Data            []float64      `json:"data"`
	MissingDataInfo map[int]string `json:"missingDataInfo,omitempty"`
	Settings        Settings       `json:"settings"`
	LastUpdated     time.Time      `json:"lastUpdated"`
}

// ResponseCache is the single-state cache of visualization responses.
type ResponseCache = cache.SingleStateCache[*Response]

var _ api.ResponseCache[*Response] = (*ResponseCache)(nil)

func NewResponseCache(store *cache.ShardedStore) *ResponseCache {
	return cache.NewSingleStateCache[*Response](store)
}
