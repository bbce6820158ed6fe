package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/directory/modules/directory/domain/record"
	"github.com/openclerk/directory/modules/directory/services"
)

func newSlugService(t *testing.T, source *fakeSource, roots ...string) *services.SlugService {
	t.Helper()
	directory := newDirectory(source)
	return services.NewSlugService(services.SlugServiceConfig{
		Directory:     directory,
		Staff:         services.NewStaffService(services.StaffServiceConfig{Directory: directory}),
		Cache:         newTestCache(t),
		TTL:           time.Hour,
		CategoryRoots: roots,
	})
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
	}{
		{"Parks & Recreation", "parks-recreation"},
		{"  Multiple   Spaces--Here ", "multiple-spaces-here"},
		{"Finance", "finance"},
		{"", ""},
		{"&&&", ""},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, services.Slugify(tc.input), "input %q", tc.input)
	}
}

func TestSlugService_CollisionSuffixesInFetchOrder(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.on("Departments", "",
		deptRecord("recD1", 1, "Finance", nil),
		deptRecord("recD2", 2, "Finance", nil))
	sut := newSlugService(t, source)

	first, ok := sut.Resolve(context.Background(), "finance")
	require.True(t, ok)
	assert.Equal(t, 1, first.ID)

	second, ok := sut.Resolve(context.Background(), "finance-1")
	require.True(t, ok)
	assert.Equal(t, 2, second.ID)
}

func TestSlugService_SubtreeExclusion(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.on("Departments", "",
		deptRecord("recD1", 1, "Townships", nil),
		deptRecord("recD2", 2, "Child", record.Fields{"Parent ID": float64(1)}),
		deptRecord("recD3", 3, "Grandchild", record.Fields{"Parent ID": float64(2)}),
		deptRecord("recD4", 4, "Unrelated", nil))
	sut := newSlugService(t, source, "Townships")

	_, ok := sut.Resolve(context.Background(), "townships")
	assert.False(t, ok)
	_, ok = sut.Resolve(context.Background(), "child")
	assert.False(t, ok)
	_, ok = sut.Resolve(context.Background(), "grandchild")
	assert.False(t, ok)

	entry, ok := sut.Resolve(context.Background(), "unrelated")
	require.True(t, ok)
	assert.Equal(t, services.EntityDepartment, entry.Type)
	assert.Equal(t, 4, entry.ID)
}

func TestSlugService_EmployeeIndexPublicOnly(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.on("Staff", "",
		staffRecord("recE1", 1, "Sam Clerk", record.Fields{"Public": true}),
		staffRecord("recE2", 2, "Hidden Person", record.Fields{"Public": false}),
		staffRecord("recE3", 3, "No Flag", nil))
	sut := newSlugService(t, source)

	entry, ok := sut.Resolve(context.Background(), "sam-clerk")
	require.True(t, ok)
	assert.Equal(t, services.EntityEmployee, entry.Type)
	assert.Equal(t, "recE1", entry.RecordID)

	_, ok = sut.Resolve(context.Background(), "hidden-person")
	assert.False(t, ok)
	_, ok = sut.Resolve(context.Background(), "no-flag")
	assert.False(t, ok)
}

func TestSlugService_EntitiesWithoutNameOrIDGetNoRoute(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.on("Departments", "",
		deptRecord("recD1", 1, "", nil),
		deptRecord("recD2", 0, "Orphan", nil),
		deptRecord("recD3", 3, "&&&", nil))
	sut := newSlugService(t, source)

	_, ok := sut.Resolve(context.Background(), "orphan")
	assert.False(t, ok)
}

func TestSlugService_DepartmentWinsOverEmployee(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.on("Departments", "", deptRecord("recD1", 1, "Finance", nil))
	source.on("Staff", "", staffRecord("recE1", 9, "Finance", record.Fields{"Public": true}))
	directory := newDirectory(source)
	logger, hook := logrustest.NewNullLogger()
	sut := services.NewSlugService(services.SlugServiceConfig{
		Directory: directory,
		Staff:     services.NewStaffService(services.StaffServiceConfig{Directory: directory}),
		Cache:     newTestCache(t),
		TTL:       time.Hour,
		Logger:    logger,
	})

	// Both indexes are cold; the collision must still win for the
	// department and be reported.
	entry, ok := sut.Resolve(context.Background(), "finance")
	require.True(t, ok)
	assert.Equal(t, services.EntityDepartment, entry.Type)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "share a slug") {
			warned = true
		}
	}
	assert.True(t, warned, "cross-type collision must be logged")
}

func TestSlugService_IndexIsCachedUntilInvalidated(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.on("Departments", "", deptRecord("recD1", 1, "Finance", nil))
	source.on("Staff", "", staffRecord("recE1", 9, "Sam Clerk", record.Fields{"Public": true}))
	sut := newSlugService(t, source)

	_, _ = sut.Resolve(context.Background(), "finance")
	fetchesAfterBuild := source.fetchCount()

	_, _ = sut.Resolve(context.Background(), "finance")
	assert.Equal(t, fetchesAfterBuild, source.fetchCount(), "cached index must not refetch")

	require.NoError(t, sut.InvalidateDepartments(context.Background()))
	_, _ = sut.Resolve(context.Background(), "finance")
	assert.Greater(t, source.fetchCount(), fetchesAfterBuild, "invalidation forces a rebuild")
}
