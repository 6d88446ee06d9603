package visualization

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/pxgraf/task-cache"
	"github.com/pxgraf/task-cache/engine"
	"github.com/pxgraf/task-cache/eviction"
	"github.com/pxgraf/task-cache/future"
)

func sampleRequest() Request {
	return Request{
		Table: TableReference{Name: "statfin_vaerak_pxt_11re.px", Hierarchy: []string{"StatFin", "vaerak"}},
		Query: map[string]DimensionQuery{
			"Vuosi":    {Selection: "Item", Values: []string{"2021", "2022"}},
			"Alue":     {Selection: "Item", Values: []string{"SSS"}},
			"Tiedot":   {Selection: "Item", Values: []string{"vaesto"}},
			"Sukupuol": {Selection: "All"},
		},
		Settings: Settings{
			VisualizationType: "LineChart",
			DefaultSelectables: map[string][]string{
				"Alue": {"SSS"},
			},
		},
		Language: "fi",
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	a, err := sampleRequest().Key()
	require.NoError(t, err)

	// Rebuild the maps so iteration order differs between runs.
	r := sampleRequest()
	q := make(map[string]DimensionQuery)
	for _, k := range []string{"Tiedot", "Sukupuol", "Vuosi", "Alue"} {
		q[k] = r.Query[k]
	}
	r.Query = q

	b, err := r.Key()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "StatFin/vaerak/statfin_vaerak_pxt_11re.px:"))
}

func TestKeyCoversEveryInput(t *testing.T) {
	base, err := sampleRequest().Key()
	require.NoError(t, err)

	mutations := map[string]func(*Request){
		"query":    func(r *Request) { r.Query["Vuosi"] = DimensionQuery{Selection: "Item", Values: []string{"2023"}} },
		"settings": func(r *Request) { r.Settings.Pivot = true },
		"language": func(r *Request) { r.Language = "sv" },
		"table":    func(r *Request) { r.Table.Name = "other.px" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			r := sampleRequest()
			mutate(&r)
			k, err := r.Key()
			require.NoError(t, err)
			assert.NotEqual(t, base, k)
		})
	}
}

func TestResponseCache(t *testing.T) {
	e := engine.NewCacheEngine(engine.WithFreshnessInterval(time.Minute))
	c := NewResponseCache(cache.NewShardedStore(2, 10, eviction.LRU, e))

	key, err := sampleRequest().Key()
	require.NoError(t, err)

	f := future.New[*Response]()
	c.Set(key, f, 5*time.Minute, 30*time.Minute)

	st, _ := c.TryGet(key)
	assert.Equal(t, cache.Pending, st)

	f.Resolve(&Response{Header: "Väestö", Data: []float64{1, 2}})

	st, got := c.TryGet(key)
	require.Equal(t, cache.Fresh, st)
	resp, err := got.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Väestö", resp.Header)
}
