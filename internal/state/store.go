package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"arrmate/internal/identity"
	"arrmate/internal/logging"
)

// ActionTaken enumerates the remedial actions recorded per item.
type ActionTaken string

const (
	ActionNone                  ActionTaken = "none"
	ActionRemovedAndBlocklisted ActionTaken = "removed_and_blocklisted"
	ActionRemovedOnly           ActionTaken = "removed_only"
	ActionSearchRetriggered     ActionTaken = "search_retriggered"
)

// Record is one persisted remediation entry.
type Record struct {
	Identity    identity.Identity `json:"identity"`
	Title       string            `json:"title,omitempty"`
	LastAction  ActionTaken       `json:"last_action"`
	Attempts    int               `json:"attempts"`
	FirstSeenAt time.Time         `json:"first_seen_at"`
	LastActedAt time.Time         `json:"last_acted_at"`
}

// Store holds one origin's remediation records. It is single-writer per
// process; cross-process exclusion is an operating constraint, not a store
// guarantee.
type Store struct {
	path    string
	logger  *slog.Logger
	records map[identity.Identity]Record
}

// Open loads the store file for one origin. A missing or unreadable file
// starts the store empty; it is never fatal.
func Open(dir, origin string, logger *slog.Logger) *Store {
	logger = logging.NewComponentLogger(logger, "state")

	s := &Store{
		path:    filepath.Join(dir, origin+"_remediation.json"),
		logger:  logger,
		records: make(map[identity.Identity]Record),
	}
	if err := s.load(); err != nil {
		logger.Warn("remediation store unreadable, starting empty",
			logging.String("path", s.path),
			logging.Error(err))
	}
	return s
}

// Get returns the record for an identity if present.
func (s *Store) Get(id identity.Identity) (Record, bool) {
	record, ok := s.records[id]
	return record, ok
}

// Upsert inserts or replaces a record. Attempts never move backwards: a
// stale caller cannot reset the counter.
func (s *Store) Upsert(record Record) {
	if strings.TrimSpace(string(record.Identity)) == "" {
		return
	}
	if existing, ok := s.records[record.Identity]; ok {
		if record.Attempts < existing.Attempts {
			record.Attempts = existing.Attempts
		}
		if record.FirstSeenAt.IsZero() || existing.FirstSeenAt.Before(record.FirstSeenAt) {
			record.FirstSeenAt = existing.FirstSeenAt
		}
	}
	if record.FirstSeenAt.IsZero() {
		record.FirstSeenAt = record.LastActedAt
	}
	s.records[record.Identity] = record
}

// MarkAction records one successful remedial action, creating the record
// on first sight and incrementing the attempt counter.
func (s *Store) MarkAction(id identity.Identity, title string, action ActionTaken, now time.Time) Record {
	record, ok := s.records[id]
	if !ok {
		record = Record{Identity: id, FirstSeenAt: now}
	}
	record.Title = title
	record.LastAction = action
	record.Attempts++
	record.LastActedAt = now
	s.records[id] = record
	return record
}

// Prune drops records whose identity is absent from the live queue and
// whose last action is older than the grace period. Records still inside
// the grace period are retained so a briefly vanished item keeps its
// attempt count.
func (s *Store) Prune(live map[identity.Identity]struct{}, grace time.Duration, now time.Time) int {
	pruned := 0
	for id, record := range s.records {
		if _, present := live[id]; present {
			continue
		}
		reference := record.LastActedAt
		if reference.IsZero() {
			reference = record.FirstSeenAt
		}
		if now.Sub(reference) > grace {
			delete(s.records, id)
			pruned++
		}
	}
	return pruned
}

// Records returns all entries sorted by identity for deterministic output.
func (s *Store) Records() []Record {
	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Identity < records[j].Identity
	})
	return records
}

// Len returns the number of records held.
func (s *Store) Len() int {
	return len(s.records)
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Clear drops every record. The change is not persisted until Save.
func (s *Store) Clear() {
	s.records = make(map[identity.Identity]Record)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse store file: %w", err)
	}
	for _, record := range records {
		if strings.TrimSpace(string(record.Identity)) != "" {
			s.records[record.Identity] = record
		}
	}
	s.logger.Debug("loaded remediation store",
		logging.Int("record_count", len(s.records)),
		logging.String("path", s.path))
	return nil
}

// Save writes the store to disk atomically via temp file and rename. A
// crash mid-write leaves the previous file intact.
func (s *Store) Save() error {
	records := s.Records()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
