// Package badgerstore persists conversation turns in a local Badger
// key-value store.
//
// Keys are composite: "turn:" + conversation ID + ":" + a big-endian
// sequence number, so a prefix scan over one conversation yields its
// turns in insertion order. Values are JSON-encoded turns.
package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/custodia-labs/responsa/internal/core/domain"
	"github.com/custodia-labs/responsa/internal/core/ports/driven"
)

// turnPrefix namespaces turn keys within the store.
const turnPrefix = "turn:"

// sequenceKey holds the global turn sequence counter.
const sequenceKey = "seq:turns"

// sequenceBandwidth is how many sequence numbers Badger leases at once.
const sequenceBandwidth = 64

// Ensure Store implements the interface.
var _ driven.ConversationStore = (*Store)(nil)

// Store is a Badger-backed conversation store.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// New opens (or creates) the conversation store under dataDir.
// If dataDir is empty, defaults to ~/.responsa/data/conversations.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".responsa", "data")
	}

	path := filepath.Join(dataDir, "conversations")
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("creating conversation directory: %w", err)
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening conversation store: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating turn sequence: %w", err)
	}

	return &Store{db: db, seq: seq}, nil
}

// AppendTurn records a completed turn at the end of the conversation.
func (s *Store) AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error {
	if conversationID == "" {
		return fmt.Errorf("%w: empty conversation id", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn: %w", err)
	}

	seq, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("allocating turn sequence: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(turnKey(conversationID, seq), value)
	})
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// History returns up to limit most recent turns, oldest first. An
// unknown conversation yields an empty slice.
func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]domain.Turn, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: empty conversation id", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := conversationPrefix(conversationID)

	var turns []domain.Turn
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Big-endian sequence keys scan in insertion order.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var turn domain.Turn
				if err := json.Unmarshal(value, &turn); err != nil {
					return fmt.Errorf("decoding turn: %w", err)
				}
				turns = append(turns, turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// Close releases the sequence lease and closes the store.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("releasing turn sequence: %w", err)
	}
	return s.db.Close()
}

// turnKey builds the composite key for one turn.
func turnKey(conversationID string, seq uint64) []byte {
	key := make([]byte, 0, len(turnPrefix)+len(conversationID)+1+8)
	key = append(key, turnPrefix...)
	key = append(key, conversationID...)
	key = append(key, ':')
	key = binary.BigEndian.AppendUint64(key, seq)
	return key
}

// conversationPrefix is the scan prefix covering one conversation.
func conversationPrefix(conversationID string) []byte {
	key := make([]byte, 0, len(turnPrefix)+len(conversationID)+1)
	key = append(key, turnPrefix...)
	key = append(key, conversationID...)
	key = append(key, ':')
	return key
}
