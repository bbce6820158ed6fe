package services_test

import (
	"context"
	"testing"

	"github.com/openclerk/directory/modules/directory/domain/record"
	"github.com/openclerk/directory/modules/directory/infrastructure/upstream"
	"github.com/openclerk/directory/modules/directory/services"
	"github.com/openclerk/directory/pkg/configuration"
	"github.com/openclerk/directory/pkg/kvstore"
)

var testTables = configuration.TableOptions{
	Departments:  "Departments",
	Staff:        "Staff",
	Boards:       "Boards",
	BoardMembers: "Board Members",
}

// fakeSource responds by exact (table, formula) key, so tests assert the
// precise filter formulas the services emit.
type fakeSource struct {
	responses map[string][]record.Record
	queries   []upstream.Query
}

func newFakeSource() *fakeSource {
	return &fakeSource{responses: make(map[string][]record.Record)}
}

func (f *fakeSource) on(table, formula string, records ...record.Record) {
	f.responses[table+"|"+formula] = records
}

func (f *fakeSource) Fetch(_ context.Context, q upstream.Query) []record.Record {
	f.queries = append(f.queries, q)
	records := f.responses[q.Table+"|"+q.FilterFormula]
	if q.MaxRecords > 0 && len(records) > q.MaxRecords {
		return records[:q.MaxRecords]
	}
	return records
}

func (f *fakeSource) fetchCount() int {
	return len(f.queries)
}

func newDirectory(source *fakeSource) *services.DirectoryService {
	return services.NewDirectoryService(services.DirectoryServiceConfig{
		Source: source,
		Tables: testTables,
	})
}

func newTestCache(t *testing.T) *kvstore.MemoryStore {
	t.Helper()
	cache := kvstore.NewMemoryStore()
	t.Cleanup(cache.Stop)
	return cache
}

func deptRecord(recID string, id int, name string, fields record.Fields) record.Record {
	if fields == nil {
		fields = record.Fields{}
	}
	fields["Department ID"] = float64(id)
	fields["Department Name"] = name
	return record.Record{ID: recID, Fields: fields}
}

func staffRecord(recID string, id int, name string, fields record.Fields) record.Record {
	if fields == nil {
		fields = record.Fields{}
	}
	fields["Employee ID"] = float64(id)
	fields["Name"] = name
	return record.Record{ID: recID, Fields: fields}
}
