package persistence

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openclerk/directory/modules/directory/domain/record"
	"github.com/openclerk/directory/modules/directory/infrastructure/upstream"
	"github.com/openclerk/directory/pkg/kvstore"
)

const fingerprintPrefix = "rs:"

// Fetcher is the single-page upstream operation RecordStore paginates
// over. *upstream.Client satisfies it.
type Fetcher interface {
	FetchPage(ctx context.Context, q upstream.Query, offset string) (upstream.Page, error)
}

type RecordStoreConfig struct {
	Fetcher   Fetcher
	Cache     kvstore.Store
	TTL       time.Duration
	PageDelay time.Duration
	Logger    *logrus.Logger
}

// RecordStore merges paginated upstream reads and caches them by query
// fingerprint. It is deliberately best-effort: remote faults yield
// partial or empty data, never an error to the caller.
type RecordStore struct {
	fetcher   Fetcher
	cache     kvstore.Store
	ttl       time.Duration
	pageDelay time.Duration
	logger    *logrus.Logger
}

func NewRecordStore(config RecordStoreConfig) *RecordStore {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RecordStore{
		fetcher:   config.Fetcher,
		cache:     config.Cache,
		ttl:       config.TTL,
		pageDelay: config.PageDelay,
		logger:    logger,
	}
}

// Fingerprint is the cache key for a query: the table as a scan-friendly
// prefix, then a digest of the normalized parameters.
func Fingerprint(q upstream.Query) string {
	sum := md5.Sum([]byte(q.CacheParams()))
	return fmt.Sprintf("%s%s:%s", fingerprintPrefix, q.Table, hex.EncodeToString(sum[:]))
}

// Fetch returns the records for the query, from cache when fresh.
// Concurrent cold-cache callers may fetch twice; last writer wins.
func (s *RecordStore) Fetch(ctx context.Context, q upstream.Query) []record.Record {
	key := Fingerprint(q)

	if cached, ok := s.getCached(ctx, key); ok {
		return cached
	}

	records, complete := s.fetchAll(ctx, q)

	// Only complete non-empty results are cached: a truncated pagination
	// or a transient zero-record response must not be pinned for the whole
	// TTL.
	if complete && len(records) > 0 {
		encoded, err := json.Marshal(records)
		if err != nil {
			s.logger.WithError(err).WithField("fingerprint", key).Error("record store: encode for cache")
			return records
		}
		if err := s.cache.SetWithTTL(ctx, key, string(encoded), s.ttl); err != nil {
			s.logger.WithError(err).WithField("fingerprint", key).Warn("record store: cache write failed")
		}
	}
	return records
}

func (s *RecordStore) getCached(ctx context.Context, key string) ([]record.Record, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("fingerprint", key).Warn("record store: cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	var records []record.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.WithError(err).WithField("fingerprint", key).Warn("record store: corrupt cache entry")
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return records, true
}

// fetchAll walks the pagination to the end. complete is false when an
// upstream fault truncated the walk; the accumulated records are still
// returned so the caller can serve them, but they must not be cached.
func (s *RecordStore) fetchAll(ctx context.Context, q upstream.Query) (accumulated []record.Record, complete bool) {
	// A cache population runs to completion even if the request that
	// triggered it goes away.
	ctx = context.WithoutCancel(ctx)

	offset := ""
	for {
		page, err := s.fetcher.FetchPage(ctx, q, offset)
		if err != nil {
			// Partial results are served: directory availability over
			// strict completeness.
			s.logger.WithError(err).WithFields(logrus.Fields{
				"table":       q.Table,
				"accumulated": len(accumulated),
			}).Warn("record store: pagination truncated by upstream fault")
			return accumulated, false
		}
		accumulated = append(accumulated, page.Records...)
		if page.Offset == "" {
			return accumulated, true
		}
		offset = page.Offset
		// Inter-page throttle toward the upstream rate limit. Not a retry
		// backoff; every pagination loop paces itself.
		time.Sleep(s.pageDelay)
	}
}

// Invalidate clears every cached fingerprint.
func (s *RecordStore) Invalidate(ctx context.Context) error {
	return s.cache.DeleteByPrefix(ctx, fingerprintPrefix)
}

// InvalidateTable clears all fingerprints derived from one table, matched
// by key prefix without decoding the digests.
func (s *RecordStore) InvalidateTable(ctx context.Context, table string) error {
	return s.cache.DeleteByPrefix(ctx, fingerprintPrefix+table+":")
}

// InvalidateQuery clears exactly one fingerprint.
func (s *RecordStore) InvalidateQuery(ctx context.Context, q upstream.Query) error {
	return s.cache.Delete(ctx, Fingerprint(q))
}
