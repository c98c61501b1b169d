// Package store persists the last-known-state inspector's per-template
// activation metadata across restarts, backed by BadgerDB.
package store

import (
	"encoding/json"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/edge-agent/internal/logger"
	"github.com/marmos91/edge-agent/pkg/metrics"
)

// metadataKey is the single key the whole state-template metadata blob is
// stored under, per spec §6.
const metadataKey = "STATE_TEMPLATE_LIST_METADATA"

// TemplateMetadata is one template's persisted activation state.
type TemplateMetadata struct {
	Activated                   bool   `json:"activated"`
	DeactivateAfterSystemTimeMs uint64 `json:"deactivateAfterSystemTimeMs"`
}

// Metadata is the JSON shape persisted under metadataKey.
type Metadata struct {
	StateTemplates map[string]TemplateMetadata `json:"stateTemplates"`
}

// Store is a BadgerDB-backed holder for one Metadata blob.
type Store struct {
	db      *badgerdb.DB
	metrics metrics.LKSIStoreMetrics
}

// Open opens (creating if necessary) a BadgerDB database at path.
func Open(path string, m metrics.LKSIStoreMetrics) (*Store, error) {
	db, err := badgerdb.Open(badgerdb.DefaultOptions(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open state template store: %w", err)
	}
	return &Store{db: db, metrics: m}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the persisted metadata blob. A missing key is tolerated and
// reported as an empty Metadata, matching the "all templates start
// deactivated" rule when no prior state exists. A blob that exists but
// fails to decode (corruption, a format from an incompatible build) is
// logged and likewise treated as empty rather than failing the caller's
// startup: the spec's "all deactivated" fallback applies to any state the
// store cannot make sense of, not just an absent key.
func (s *Store) Load() (*Metadata, error) {
	meta := &Metadata{StateTemplates: make(map[string]TemplateMetadata)}

	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(metadataKey))
		if err == badgerdb.ErrKeyNotFound {
			if s.metrics != nil {
				s.metrics.RecordMiss()
			}
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var decoded Metadata
			if err := json.Unmarshal(val, &decoded); err != nil {
				logger.Error("discarding unreadable state template metadata, treating all templates as deactivated", logger.Err(err))
				if s.metrics != nil {
					s.metrics.RecordMiss()
				}
				return nil
			}
			if decoded.StateTemplates == nil {
				decoded.StateTemplates = make(map[string]TemplateMetadata)
			}
			meta = &decoded
			if s.metrics != nil {
				s.metrics.RecordHit()
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// Save overwrites the persisted metadata blob with meta in its entirety.
func (s *Store) Save(meta *Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode state template metadata: %w", err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(metadataKey), data)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordPersist()
	}
	return nil
}
