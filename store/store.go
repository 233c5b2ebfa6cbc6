// Package store holds the two key-value partitions the service works with:
// gene documents keyed by hgnc_id, and the single rendered plot.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key is absent.
	ErrNotFound = errors.New("not found")
	// ErrEmpty is returned by operations that need at least one record.
	ErrEmpty = errors.New("no data")
)

// PlotKey is the key the plot is stored under.
const PlotKey = "locus_plot"

// Document is a gene record as stored: its identifier and the raw JSON.
type Document struct {
	ID  string
	Raw []byte
}

// RecordStore maps identifiers to serialized documents. There is no
// transactional guarantee across calls; concurrent writers race and the last
// write wins.
type RecordStore interface {
	// Keys returns all identifiers in ascending order. No data is an empty
	// slice, not an error.
	Keys(ctx context.Context) ([]string, error)
	// Get returns the document stored under id or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put stores doc under id, replacing any previous value.
	Put(ctx context.Context, id string, doc []byte) error
	// PutMany is Put for every document in docs.
	PutMany(ctx context.Context, docs []Document) error
	// Len returns the number of stored identifiers.
	Len(ctx context.Context) (int, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// ImageStore holds at most one rendered plot.
type ImageStore interface {
	GetPlot(ctx context.Context) ([]byte, error)
	PutPlot(ctx context.Context, png []byte) error
	// DeletePlot reports whether a plot existed.
	DeletePlot(ctx context.Context) (bool, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
