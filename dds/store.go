package dds

import (
	"fmt"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const stateBucket = "state"

// stateLine is one "pub" message retained across restarts: the most recent
// message of a given kind from a given sender.
type stateLine struct {
	Msg  Message
	Last time.Time
}

// Store is the persisted $XDG_STATE_HOME/yazi/.dds table (§6): "line-
// oriented persisted pub/sub state... atomically rewritten, sorted by
// kind, only when in-memory state's last timestamp exceeds the file's
// mtime". Backed by bbolt rather than a hand-rolled sort+rename, the same
// way rclone's persistent cache trades a flat-file format for bbolt's
// atomic transactions.
type Store struct {
	mu      sync.Mutex
	db      *bolt.DB
	lines   map[string]stateLine // key: kind+"\x00"+sender
	lastPut time.Time
	mtime   time.Time
}

// Open opens (creating if absent) the bbolt-backed state file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("dds: open state store %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dds: init state bucket: %w", err)
	}

	s := &Store{db: db, lines: make(map[string]stateLine)}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(stateBucket))
		return b.ForEach(func(k, v []byte) error {
			msg, err := ParseMessage(string(v))
			if err != nil {
				return nil // skip unreadable legacy lines rather than fail Open
			}
			s.lines[string(k)] = stateLine{Msg: msg, Last: time.Now()}
			return nil
		})
	})
}

func stateKey(kind string, sender uint64) string {
	return fmt.Sprintf("%s\x00%d", kind, sender)
}

// Put records m as the latest "pub" state for its (kind, sender) pair.
func (s *Store) Put(m Message) error {
	s.mu.Lock()
	key := stateKey(m.Kind, m.Sender)
	s.lines[key] = stateLine{Msg: m, Last: time.Now()}
	s.lastPut = s.lines[key].Last
	pending := s.lastPut.After(s.mtime)
	s.mu.Unlock()

	if !pending {
		return nil
	}
	return s.flush()
}

// flush atomically rewrites the bucket with all current lines, sorted by
// kind, only when in-memory state is newer than what's on disk.
func (s *Store) flush() error {
	s.mu.Lock()
	kinds := make([]string, 0, len(s.lines))
	for k := range s.lines {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	snapshot := make(map[string]Message, len(kinds))
	for _, k := range kinds {
		snapshot[k] = s.lines[k].Msg
	}
	s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(stateBucket))
		if err := b.ForEach(func(k, _ []byte) error {
			return b.Delete(k)
		}); err != nil {
			return err
		}
		for _, k := range kinds {
			if err := b.Put([]byte(k), snapshot[k].Encode()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("dds: flush state: %w", err)
	}

	s.mu.Lock()
	s.mtime = time.Now()
	s.mu.Unlock()
	return nil
}

// All returns every retained state line, sorted by kind.
func (s *Store) All() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.lines))
	for k := range s.lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Message, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.lines[k].Msg)
	}
	return out
}

// ByKind returns the retained state lines whose Kind matches kind.
func (s *Store) ByKind(kind string) []Message {
	var out []Message
	for _, m := range s.All() {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Close flushes any pending state and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	pending := s.lastPut.After(s.mtime)
	s.mu.Unlock()
	if pending {
		if err := s.flush(); err != nil {
			_ = s.db.Close()
			return err
		}
	}
	return s.db.Close()
}
