package chart

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/mailru/easyjson"
	"github.com/stretchr/testify/require"

	"github.com/moontrade/hgncd/store"
)

func seed(t *testing.T, docs map[string]string) store.RecordStore {
	t.Helper()
	s := store.NewMemoryRecords()
	for id, doc := range docs {
		require.NoError(t, s.Put(context.Background(), id, []byte(doc)))
	}
	return s
}

func TestBuildScenario(t *testing.T) {
	s := seed(t, map[string]string{
		"HGNC:1": `{"hgnc_id":"HGNC:1","locus_group":"protein-coding gene"}`,
		"HGNC:2": `{"hgnc_id":"HGNC:2","locus_group":"protein-coding gene"}`,
	})
	tally, err := Build(context.Background(), s, DefaultField)
	require.NoError(t, err)
	require.Equal(t, 2, tally.Total)
	require.Equal(t, []Count{{Category: "protein-coding gene", Count: 2}}, tally.Counts)
	require.Equal(t, 2, tally.Get("protein-coding gene"))
	require.Zero(t, tally.Get("pseudogene"))
}

func TestBuildOrderedAndMissing(t *testing.T) {
	s := seed(t, map[string]string{
		"HGNC:1": `{"locus_group":"pseudogene"}`,
		"HGNC:2": `{"locus_group":"non-coding RNA"}`,
		"HGNC:3": `{"locus_group":"pseudogene"}`,
		"HGNC:4": `{"symbol":"X"}`,
	})
	tally, err := Build(context.Background(), s, DefaultField)
	require.NoError(t, err)
	require.Equal(t, 4, tally.Total)
	require.Equal(t, []Count{
		{Category: "", Count: 1},
		{Category: "non-coding RNA", Count: 1},
		{Category: "pseudogene", Count: 2},
	}, tally.Counts)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(context.Background(), store.NewMemoryRecords(), DefaultField)
	require.ErrorIs(t, err, store.ErrEmpty)
}

// vanishing drops every key after listing it, as a concurrent DELETE /data
// would.
type vanishing struct{ store.RecordStore }

func (v vanishing) Get(ctx context.Context, id string) ([]byte, error) {
	return nil, store.ErrNotFound
}

func TestBuildKeysVanish(t *testing.T) {
	s := seed(t, map[string]string{"HGNC:1": `{"locus_group":"x"}`})
	_, err := Build(context.Background(), vanishing{s}, DefaultField)
	require.ErrorIs(t, err, store.ErrEmpty)
}

func TestTallyJSON(t *testing.T) {
	in := &Tally{Field: DefaultField, Total: 3, Counts: []Count{
		{Category: "non-coding RNA", Count: 1},
		{Category: "protein-coding gene", Count: 2},
	}}
	data, err := easyjson.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"field":"locus_group","total":3,"counts":[
		{"category":"non-coding RNA","count":1},
		{"category":"protein-coding gene","count":2}]}`, string(data))

	var out Tally
	require.NoError(t, easyjson.Unmarshal(data, &out))
	require.Equal(t, *in, out)
}

func TestRender(t *testing.T) {
	tally := &Tally{Field: DefaultField, Total: 5, Counts: []Count{
		{Category: "", Count: 1},
		{Category: "non-coding RNA", Count: 2},
		{Category: "protein-coding gene", Count: 2},
	}}
	img, err := Render(tally, Options{})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(img, []byte("\x89PNG\r\n\x1a\n")))

	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	require.Greater(t, cfg.Width, cfg.Height)
}

func TestRenderEmpty(t *testing.T) {
	_, err := Render(&Tally{Field: DefaultField}, Options{})
	require.ErrorIs(t, err, store.ErrEmpty)
	_, err = Render(nil, Options{})
	require.ErrorIs(t, err, store.ErrEmpty)
}
