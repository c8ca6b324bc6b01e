package reports

import (
	"adaudit/features/sync"
	"adaudit/internal/config"
	"encoding/json"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

var ErrReportNotFound = errors.New("report not found")

const (
	reportKeyPrefix = "report:"

	bloomExpectedReports   = 100_000
	bloomFalsePositiveRate = 0.01
)

// ReportStore keeps finished bulk-session reports in badger with a TTL, so
// status queries outlive the manager's in-memory history. A bloom filter on
// session IDs short-circuits lookups for sessions that were never stored.
type ReportStore struct {
	db     *badger.DB
	ttl    time.Duration
	filter *bloom.BloomFilter
	mu     gosync.RWMutex
}

func NewReportStore(cfg *config.CacheSettings) (*ReportStore, error) {
	opts := badger.DefaultOptions(cfg.BadgerPath).
		WithInMemory(cfg.InMemory || cfg.BadgerPath == "").
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger report store: %w", err)
	}

	store := &ReportStore{
		db:  db,
		ttl: cfg.ReportTTL,
	}
	if cfg.UseBloom {
		store.filter = bloom.NewWithEstimates(bloomExpectedReports, bloomFalsePositiveRate)
	}

	log.Info().
		Bool("in_memory", opts.InMemory).
		Dur("ttl", cfg.ReportTTL).
		Bool("bloom", store.filter != nil).
		Msg("report store initialized")

	return store, nil
}

func (s *ReportStore) Save(report *sync.BulkSession) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", report.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(reportKeyPrefix+report.ID), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to store report %s: %w", report.ID, err)
	}

	if s.filter != nil {
		s.mu.Lock()
		s.filter.AddString(report.ID)
		s.mu.Unlock()
	}

	return nil
}

func (s *ReportStore) Get(sessionID string) (*sync.BulkSession, error) {
	if s.filter != nil {
		s.mu.RLock()
		known := s.filter.TestString(sessionID)
		s.mu.RUnlock()
		if !known {
			return nil, ErrReportNotFound
		}
	}

	var report sync.BulkSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(reportKeyPrefix + sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", sessionID, err)
	}

	return &report, nil
}

func (s *ReportStore) Close() error {
	return s.db.Close()
}
