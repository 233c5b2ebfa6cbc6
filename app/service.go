package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/moontrade/hgncd/chart"
	"github.com/moontrade/hgncd/ingest"
	"github.com/moontrade/hgncd/logger"
	"github.com/moontrade/hgncd/store"
)

// Loader fills a record store from the upstream dataset.
type Loader interface {
	Load(ctx context.Context, s store.RecordStore) (ingest.Result, error)
}

// Service is everything a route can do, expressed against the two stores.
// Outcomes other than success are errors: store.ErrEmpty, ErrInvalidID,
// ErrNoPlot and *ingest.UpstreamError.
type Service struct {
	Records store.RecordStore
	Images  store.ImageStore
	Loader  Loader

	// Field is the document field tallied for the plot.
	Field string
	// Chart configures the rendered image.
	Chart chart.Options

	observe func(event string, n int)
}

// NewService returns a Service tallying chart.DefaultField.
func NewService(records store.RecordStore, images store.ImageStore, loader Loader) *Service {
	return &Service{
		Records: records,
		Images:  images,
		Loader:  loader,
		Field:   chart.DefaultField,
	}
}

func (s *Service) record(event string, n int) {
	if s.observe != nil {
		s.observe(event, n)
	}
}

// Documents returns every stored document in identifier order.
func (s *Service) Documents(ctx context.Context) ([][]byte, error) {
	keys, err := s.Records.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, store.ErrEmpty
	}
	docs := make([][]byte, 0, len(keys))
	for _, key := range keys {
		doc, err := s.Records.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(doc) {
			logger.Warn("id", key, "stored document is not JSON, skipped")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Load runs ingestion.
func (s *Service) Load(ctx context.Context) (ingest.Result, error) {
	if s.Loader == nil {
		return ingest.Result{}, errors.New("no upstream loader configured")
	}
	res, err := s.Loader.Load(ctx, s.Records)
	if err != nil {
		return ingest.Result{}, err
	}
	s.record("ingested", res.Loaded)
	return res, nil
}

// Clear empties the record store and returns the remaining key count.
func (s *Service) Clear(ctx context.Context) (int, error) {
	if err := s.Records.Clear(ctx); err != nil {
		return 0, err
	}
	return s.Records.Len(ctx)
}

// Genes returns all identifiers.
func (s *Service) Genes(ctx context.Context) ([]string, error) {
	keys, err := s.Records.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, store.ErrEmpty
	}
	return keys, nil
}

// Gene returns one document. An unknown id is store.ErrEmpty when nothing is
// stored and ErrInvalidID otherwise.
func (s *Service) Gene(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.Records.Get(ctx, id)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err := s.requireData(ctx); err != nil {
		return nil, err
	}
	return nil, ErrInvalidID
}

func (s *Service) requireData(ctx context.Context) error {
	n, err := s.Records.Len(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrEmpty
	}
	return nil
}

// Tally counts Field over the stored documents without rendering.
func (s *Service) Tally(ctx context.Context) (*chart.Tally, error) {
	return chart.Build(ctx, s.Records, s.Field)
}

// MakePlot tallies the stored documents, renders the chart and stores it,
// replacing any previous plot.
func (s *Service) MakePlot(ctx context.Context) (*chart.Tally, error) {
	tally, err := s.Tally(ctx)
	if err != nil {
		return nil, err
	}
	img, err := chart.Render(tally, s.Chart)
	if err != nil {
		return nil, err
	}
	if err := s.Images.PutPlot(ctx, img); err != nil {
		return nil, fmt.Errorf("store plot: %w", err)
	}
	s.record("plotted", 1)
	logger.Debug("categories", len(tally.Counts), "total", tally.Total, "bytes", len(img), "plot saved")
	return tally, nil
}

// Plot returns the stored PNG. It is store.ErrEmpty when no records are
// stored, even if a plot is.
func (s *Service) Plot(ctx context.Context) ([]byte, error) {
	if err := s.requireData(ctx); err != nil {
		return nil, err
	}
	img, err := s.Images.GetPlot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoPlot
	}
	return img, err
}

// DeletePlot removes the stored plot.
func (s *Service) DeletePlot(ctx context.Context) (bool, error) {
	return s.Images.DeletePlot(ctx)
}
