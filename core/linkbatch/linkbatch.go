// Package linkbatch checks the existence of many pages in one lookup.
package linkbatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/FocuswithJustin/wikiconv/core/title"
)

// PageKey identifies a page by namespace and database key.
type PageKey struct {
	Namespace int
	DBkey     string
}

// PageRecord is an existing page.
type PageRecord struct {
	Namespace int
	DBkey     string
	ID        int64
}

// Lookup finds the pages that exist among keys. Keys of missing pages are
// simply absent from the result.
type Lookup interface {
	LookupPages(ctx context.Context, keys []PageKey) ([]PageRecord, error)
}

// Batch collects titles and resolves them with a single Lookup call.
type Batch struct {
	lookup Lookup
	keys   []PageKey
	titles map[PageKey]*title.Title
}

// New returns an empty batch resolved through lookup.
func New(lookup Lookup) *Batch {
	return &Batch{lookup: lookup, titles: make(map[PageKey]*title.Title)}
}

// Add queues t. Titles already queued are ignored.
func (b *Batch) Add(t *title.Title) {
	if t == nil {
		return
	}
	key := PageKey{Namespace: t.Namespace(), DBkey: t.DBkey()}
	if _, ok := b.titles[key]; ok {
		return
	}
	b.titles[key] = t
	b.keys = append(b.keys, key)
}

// Len returns the number of queued titles.
func (b *Batch) Len() int { return len(b.keys) }

// Execute looks up every queued title and returns page ids keyed by
// prefixed database key. Missing pages map to 0. An empty batch performs
// no lookup.
func (b *Batch) Execute(ctx context.Context) (map[string]int64, error) {
	ids := make(map[string]int64, len(b.keys))
	if len(b.keys) == 0 {
		return ids, nil
	}
	for _, t := range b.titles {
		ids[t.PrefixedDBkey()] = 0
	}
	recs, err := b.lookup.LookupPages(ctx, b.keys)
	if err != nil {
		return nil, fmt.Errorf("link batch of %d titles: %w", len(b.keys), err)
	}
	for _, r := range recs {
		if t, ok := b.titles[PageKey{Namespace: r.Namespace, DBkey: r.DBkey}]; ok {
			ids[t.PrefixedDBkey()] = r.ID
		}
	}
	return ids, nil
}

// MapLookup is an in-memory Lookup. It counts the calls made to it.
type MapLookup struct {
	mu    sync.Mutex
	pages map[PageKey]int64
	calls int
}

// NewMapLookup returns a lookup over pages.
func NewMapLookup(pages map[PageKey]int64) *MapLookup {
	m := &MapLookup{pages: make(map[PageKey]int64, len(pages))}
	for k, id := range pages {
		m.pages[k] = id
	}
	return m
}

// Set adds or replaces a page.
func (m *MapLookup) Set(key PageKey, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[key] = id
}

// LookupPages implements Lookup.
func (m *MapLookup) LookupPages(ctx context.Context, keys []PageKey) ([]PageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []PageRecord
	for _, k := range keys {
		if id, ok := m.pages[k]; ok && id > 0 {
			out = append(out, PageRecord{Namespace: k.Namespace, DBkey: k.DBkey, ID: id})
		}
	}
	return out, nil
}

// Calls returns the number of LookupPages calls so far.
func (m *MapLookup) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
