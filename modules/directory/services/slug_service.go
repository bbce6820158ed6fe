package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/openclerk/directory/modules/directory/domain/department"
	"github.com/openclerk/directory/modules/directory/domain/employee"
	"github.com/openclerk/directory/pkg/kvstore"
)

// Slug index cache keys, exported for the ops CLI.
const (
	DepartmentSlugCacheKey = "slugs:departments"
	EmployeeSlugCacheKey   = "slugs:employees"
)

type EntityType string

const (
	EntityDepartment EntityType = "department"
	EntityEmployee   EntityType = "employee"
)

// SlugEntry is what a slug resolves to.
type SlugEntry struct {
	Type     EntityType `json:"type"`
	ID       int        `json:"id"`
	RecordID string     `json:"recordId"`
	Name     string     `json:"name"`
}

type slugIndex map[string]SlugEntry

// Slugify derives the URL identifier from a display name: lowercase,
// keep [a-z0-9 -], collapse whitespace/hyphen runs to one hyphen, trim
// hyphens. An empty result means the entity gets no route.
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	hyphenated := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, b.String())
	for strings.Contains(hyphenated, "--") {
		hyphenated = strings.ReplaceAll(hyphenated, "--", "-")
	}
	return strings.Trim(hyphenated, "-")
}

type SlugServiceConfig struct {
	Directory     *DirectoryService
	Staff         *StaffService
	Cache         kvstore.Store
	TTL           time.Duration
	CategoryRoots []string
	Logger        *logrus.Logger
}

// SlugService builds and caches the two slug indexes and resolves
// inbound slugs against them. Indexes are rebuilt wholesale on expiry or
// invalidation, never patched.
type SlugService struct {
	directory     *DirectoryService
	staff         *StaffService
	cache         kvstore.Store
	ttl           time.Duration
	categoryRoots []string
	logger        *logrus.Logger
}

func NewSlugService(config SlugServiceConfig) *SlugService {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SlugService{
		directory:     config.Directory,
		staff:         config.Staff,
		cache:         config.Cache,
		ttl:           config.TTL,
		categoryRoots: config.CategoryRoots,
		logger:        logger,
	}
}

// Resolve maps a slug to an entity. Departments are checked first; a slug
// present in both indexes is a data-quality fault worth surfacing, but
// the department still wins. Both indexes are consulted on every hit so
// the collision warning fires even when the losing index was cold.
func (s *SlugService) Resolve(ctx context.Context, slug string) (SlugEntry, bool) {
	departments := s.index(ctx, DepartmentSlugCacheKey, s.buildDepartmentIndex)
	employees := s.index(ctx, EmployeeSlugCacheKey, s.buildEmployeeIndex)

	if entry, ok := departments[slug]; ok {
		if _, collides := employees[slug]; collides {
			s.logger.WithField("slug", slug).Warn("slug: department and employee share a slug, department takes precedence")
		}
		return entry, true
	}
	if entry, ok := employees[slug]; ok {
		return entry, true
	}
	return SlugEntry{}, false
}

// InvalidateDepartments drops the department index; the next resolution
// rebuilds it from scratch.
func (s *SlugService) InvalidateDepartments(ctx context.Context) error {
	return s.cache.Delete(ctx, DepartmentSlugCacheKey)
}

func (s *SlugService) InvalidateEmployees(ctx context.Context) error {
	return s.cache.Delete(ctx, EmployeeSlugCacheKey)
}

func (s *SlugService) index(ctx context.Context, key string, build func(context.Context) slugIndex) slugIndex {
	if cached, ok := s.cachedIndex(ctx, key); ok {
		return cached
	}

	idx := build(ctx)
	if len(idx) > 0 {
		encoded, err := json.Marshal(idx)
		if err != nil {
			s.logger.WithError(err).WithField("index", key).Error("slug: encode index")
			return idx
		}
		if err := s.cache.SetWithTTL(ctx, key, string(encoded), s.ttl); err != nil {
			s.logger.WithError(err).WithField("index", key).Warn("slug: cache write failed")
		}
	}
	return idx
}

func (s *SlugService) cachedIndex(ctx context.Context, key string) (slugIndex, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return nil, false
	}
	var idx slugIndex
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		s.logger.WithError(err).WithField("index", key).Warn("slug: corrupt cached index")
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return idx, true
}

func (s *SlugService) buildDepartmentIndex(ctx context.Context) slugIndex {
	departments := s.directory.AllDepartments(ctx)
	excluded := excludeSubtrees(departments, s.categoryRoots)

	idx := make(slugIndex, len(departments))
	for _, d := range departments {
		if excluded[d.ID] || d.Name == "" || d.ID == 0 {
			continue
		}
		slug := Slugify(d.Name)
		if slug == "" {
			continue
		}
		assign(idx, slug, SlugEntry{
			Type:     EntityDepartment,
			ID:       d.ID,
			RecordID: d.RecordID,
			Name:     d.Name,
		})
	}
	return idx
}

func (s *SlugService) buildEmployeeIndex(ctx context.Context) slugIndex {
	// Non-public employees never receive a route, whatever else their
	// record carries.
	records := s.staff.FilterPublic(s.directory.AllEmployeeRecords(ctx))

	idx := make(slugIndex, len(records))
	for _, rec := range records {
		e := employee.FromRecord(rec)
		if e.Name == "" || e.ID == 0 {
			continue
		}
		slug := Slugify(e.Name)
		if slug == "" {
			continue
		}
		assign(idx, slug, SlugEntry{
			Type:     EntityEmployee,
			ID:       e.ID,
			RecordID: e.RecordID,
			Name:     e.Name,
		})
	}
	return idx
}

// assign inserts under the base slug, suffixing -1, -2, … on collision.
// First come first served in fetch order.
func assign(idx slugIndex, base string, entry SlugEntry) {
	slug := base
	for i := 1; ; i++ {
		if _, taken := idx[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	idx[slug] = entry
}

// excludeSubtrees marks every department in a subtree rooted at a
// category-root name. Edges come from a one-time adjacency map rather
// than repeated list scans; the visited check makes the walk cycle-safe.
func excludeSubtrees(departments []department.Department, rootNames []string) map[int]bool {
	roots := make(map[string]bool, len(rootNames))
	for _, name := range rootNames {
		roots[name] = true
	}

	children := make(map[int][]int, len(departments))
	for _, d := range departments {
		if d.HasParent {
			children[d.ParentID] = append(children[d.ParentID], d.ID)
		}
	}

	excluded := make(map[int]bool)
	var queue []int
	for _, d := range departments {
		if roots[d.Name] && d.ID != 0 && !excluded[d.ID] {
			excluded[d.ID] = true
			queue = append(queue, d.ID)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if excluded[child] {
				continue
			}
			excluded[child] = true
			queue = append(queue, child)
		}
	}
	return excluded
}
