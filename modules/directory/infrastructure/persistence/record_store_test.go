package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/directory/modules/directory/domain/record"
	"github.com/openclerk/directory/modules/directory/infrastructure/persistence"
	"github.com/openclerk/directory/modules/directory/infrastructure/upstream"
	"github.com/openclerk/directory/pkg/kvstore"
)

// fakeFetcher serves a scripted sequence of pages and counts calls.
type fakeFetcher struct {
	pages map[string]upstream.Page // keyed by offset
	err   error                    // returned once the scripted pages run out
	calls int
}

func (f *fakeFetcher) FetchPage(_ context.Context, _ upstream.Query, offset string) (upstream.Page, error) {
	f.calls++
	page, ok := f.pages[offset]
	if !ok {
		if f.err != nil {
			return upstream.Page{}, f.err
		}
		return upstream.Page{}, nil
	}
	return page, nil
}

func rec(id string) record.Record {
	return record.Record{ID: id, Fields: record.Fields{}}
}

func newStore(t *testing.T, fetcher *fakeFetcher, ttl time.Duration) *persistence.RecordStore {
	t.Helper()
	cache := kvstore.NewMemoryStore()
	t.Cleanup(cache.Stop)
	return persistence.NewRecordStore(persistence.RecordStoreConfig{
		Fetcher:   fetcher,
		Cache:     cache,
		TTL:       ttl,
		PageDelay: 0,
	})
}

func TestRecordStore_MergesAllPages(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]upstream.Page{
		"":   {Records: []record.Record{rec("r1"), rec("r2")}, Offset: "p2"},
		"p2": {Records: []record.Record{rec("r3")}},
	}}
	store := newStore(t, fetcher, time.Hour)

	records := store.Fetch(context.Background(), upstream.Query{Table: "Departments"})
	require.Len(t, records, 3)
	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, "r3", records[2].ID)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRecordStore_SecondFetchServedFromCache(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]upstream.Page{
		"": {Records: []record.Record{rec("r1")}},
	}}
	store := newStore(t, fetcher, time.Hour)
	q := upstream.Query{Table: "Departments"}

	first := store.Fetch(context.Background(), q)
	second := store.Fetch(context.Background(), q)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls, "cached fetch must not hit upstream")
}

func TestRecordStore_ExpiredEntryRefetches(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]upstream.Page{
		"": {Records: []record.Record{rec("r1")}},
	}}
	store := newStore(t, fetcher, 20*time.Millisecond)
	q := upstream.Query{Table: "Departments"}

	store.Fetch(context.Background(), q)
	time.Sleep(40 * time.Millisecond)
	store.Fetch(context.Background(), q)

	assert.Equal(t, 2, fetcher.calls)
}

func TestRecordStore_InvalidateTableForcesRefetch(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]upstream.Page{
		"": {Records: []record.Record{rec("r1")}},
	}}
	store := newStore(t, fetcher, time.Hour)
	q := upstream.Query{Table: "Departments"}

	store.Fetch(context.Background(), q)
	require.NoError(t, store.InvalidateTable(context.Background(), "Departments"))
	store.Fetch(context.Background(), q)

	assert.Equal(t, 2, fetcher.calls)
}

func TestRecordStore_InvalidateTableScopedToTable(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]upstream.Page{
		"": {Records: []record.Record{rec("r1")}},
	}}
	store := newStore(t, fetcher, time.Hour)
	deptQ := upstream.Query{Table: "Departments"}
	staffQ := upstream.Query{Table: "Staff"}

	store.Fetch(context.Background(), deptQ)
	store.Fetch(context.Background(), staffQ)
	require.Equal(t, 2, fetcher.calls)

	require.NoError(t, store.InvalidateTable(context.Background(), "Departments"))

	store.Fetch(context.Background(), staffQ)
	assert.Equal(t, 2, fetcher.calls, "other table must stay cached")

	store.Fetch(context.Background(), deptQ)
	assert.Equal(t, 3, fetcher.calls)
}

func TestRecordStore_EmptyResultNotCached(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]upstream.Page{
		"": {Records: nil},
	}}
	store := newStore(t, fetcher, time.Hour)
	q := upstream.Query{Table: "Departments"}

	assert.Empty(t, store.Fetch(context.Background(), q))
	assert.Empty(t, store.Fetch(context.Background(), q))
	assert.Equal(t, 2, fetcher.calls, "zero-record responses are retried, not pinned")
}

func TestRecordStore_MidStreamFaultKeepsPartialResults(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		pages: map[string]upstream.Page{
			"": {Records: []record.Record{rec("r1")}, Offset: "p2"},
		},
		err: errors.New("upstream down"),
	}
	store := newStore(t, fetcher, time.Hour)

	records := store.Fetch(context.Background(), upstream.Query{Table: "Departments"})
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].ID)
}

func TestRecordStore_TruncatedResultNotCached(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		pages: map[string]upstream.Page{
			"": {Records: []record.Record{rec("r1")}, Offset: "p2"},
		},
		err: errors.New("upstream down"),
	}
	store := newStore(t, fetcher, time.Hour)
	q := upstream.Query{Table: "Departments"}

	partial := store.Fetch(context.Background(), q)
	require.Len(t, partial, 1)

	// Upstream recovers. If the truncated result had been cached, the
	// directory would stay incomplete for the whole TTL.
	fetcher.pages["p2"] = upstream.Page{Records: []record.Record{rec("r2")}}

	full := store.Fetch(context.Background(), q)
	require.Len(t, full, 2)
	assert.Equal(t, "r2", full[1].ID)
}

func TestFingerprint_TablePrefixedAndDeterministic(t *testing.T) {
	t.Parallel()

	q := upstream.Query{Table: "Departments", FilterFormula: "{Department ID} = 1"}
	assert.Equal(t, persistence.Fingerprint(q), persistence.Fingerprint(q))
	assert.Contains(t, persistence.Fingerprint(q), "rs:Departments:")

	other := upstream.Query{Table: "Departments", FilterFormula: "{Department ID} = 2"}
	assert.NotEqual(t, persistence.Fingerprint(q), persistence.Fingerprint(other))
}
