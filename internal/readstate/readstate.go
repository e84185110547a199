// Package readstate remembers which posts of a topic were read, across
// sessions, in a bbolt file.
package readstate

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/idursun/threadview/internal/logger"
)

const (
	bucketTopics = "topics"
	keyLastRead  = "last_read"
)

// Store records read posts for one topic. It implements the viewport's
// ScreenTrack.
type Store struct {
	db       *bolt.DB
	topic    []byte
	log      *slog.Logger
	onscreen []int
	lastRead int
}

// DefaultPath returns the store location used when none is configured.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "threadview", "readstate.db"), nil
}

// Open opens (creating if needed) the store at path for topicID.
func Open(path string, topicID int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("readstate: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("readstate: open %s: %w", path, err)
	}
	s := &Store{
		db:    db,
		topic: []byte(strconv.Itoa(topicID)),
		log:   logger.ComponentLogger("readstate"),
	}
	err = db.Update(func(tx *bolt.Tx) error {
		topics, err := tx.CreateBucketIfNotExists([]byte(bucketTopics))
		if err != nil {
			return err
		}
		b, err := topics.CreateBucketIfNotExists(s.topic)
		if err != nil {
			return err
		}
		if v := b.Get([]byte(keyLastRead)); v != nil {
			s.lastRead = int(unmarshalNumber(v))
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("readstate: init: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetOnscreen records the posts on screen and persists the ones read.
func (s *Store) SetOnscreen(postNumbers, readPostNumbers []int) {
	s.onscreen = slices.Clone(postNumbers)
	if len(readPostNumbers) == 0 {
		return
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTopics)).Bucket(s.topic)
		stamp := []byte(time.Now().UTC().Format(time.RFC3339))
		for _, n := range readPostNumbers {
			key := marshalNumber(uint64(n))
			if b.Get(key) != nil {
				continue
			}
			if err := b.Put(key, stamp); err != nil {
				return err
			}
		}
		if highest := slices.Max(readPostNumbers); highest > s.lastRead {
			s.lastRead = highest
			return b.Put([]byte(keyLastRead), marshalNumber(uint64(highest)))
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to record read posts", "err", err)
	}
}

// Onscreen returns the post numbers of the latest SetOnscreen call.
func (s *Store) Onscreen() []int { return s.onscreen }

// LastRead returns the highest post number ever read.
func (s *Store) LastRead() int { return s.lastRead }

// IsRead reports whether post number was read.
func (s *Store) IsRead(number int) bool {
	var read bool
	err := s.db.View(func(tx *bolt.Tx) error {
		read = tx.Bucket([]byte(bucketTopics)).Bucket(s.topic).Get(marshalNumber(uint64(number))) != nil
		return nil
	})
	if err != nil {
		s.log.Error("failed to look up read post", "post", number, "err", err)
	}
	return read
}

// ReadCount returns how many posts were read.
func (s *Store) ReadCount() int {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTopics)).Bucket(s.topic).ForEach(func(k, _ []byte) error {
			if len(k) == 8 {
				n++
			}
			return nil
		})
	})
	if err != nil {
		s.log.Error("failed to count read posts", "err", err)
	}
	return n
}

func marshalNumber(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func unmarshalNumber(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
