// Package chart counts a categorical field across the stored gene documents
// and renders the counts as a bar chart.
package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/tinybtree"

	"github.com/moontrade/hgncd/store"
)

//go:generate easyjson tally.go

// DefaultField is the document field the plot is built from.
const DefaultField = "locus_group"

// Count is the number of documents in one category.
//easyjson:json
type Count struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Tally is the category counts for one field, ordered by category.
//easyjson:json
type Tally struct {
	Field  string  `json:"field"`
	Total  int     `json:"total"`
	Counts []Count `json:"counts"`
}

// Get returns the count for category, zero when absent.
func (t *Tally) Get(category string) int {
	for _, c := range t.Counts {
		if c.Category == category {
			return c.Count
		}
	}
	return 0
}

// Counter accumulates categories in sorted order.
type Counter struct {
	field string
	total int
	tr    tinybtree.BTree
}

// NewCounter returns a Counter for field.
func NewCounter(field string) *Counter {
	return &Counter{field: field}
}

// Add counts one document. A missing or non-string field is counted under
// its string form, which is "" when missing.
func (c *Counter) Add(doc []byte) {
	category := gjson.GetBytes(doc, c.field).String()
	n := 0
	if v, ok := c.tr.Get(category); ok {
		n = v.(int)
	}
	c.tr.Set(category, n+1)
	c.total++
}

// Tally returns the counts collected so far.
func (c *Counter) Tally() *Tally {
	t := &Tally{Field: c.field, Total: c.total, Counts: make([]Count, 0, c.tr.Len())}
	c.tr.Scan(func(key string, value interface{}) bool {
		t.Counts = append(t.Counts, Count{Category: key, Count: value.(int)})
		return true
	})
	return t
}

// Build counts field over every document in s. The key set is read first;
// keys removed before their document is read are skipped. An empty store is
// store.ErrEmpty.
func Build(ctx context.Context, s store.RecordStore, field string) (*Tally, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, store.ErrEmpty
	}
	c := NewCounter(field)
	for _, key := range keys {
		doc, err := s.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tally %s: %w", key, err)
		}
		c.Add(doc)
	}
	if c.total == 0 {
		return nil, store.ErrEmpty
	}
	return c.Tally(), nil
}
