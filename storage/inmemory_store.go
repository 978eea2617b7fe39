package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type InmemoryStore struct {
	mu    sync.Mutex
	users map[uint32]map[string][]byte

	// stop willl be closed when Close() is called
	stop chan struct{}
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		users: make(map[uint32]map[string][]byte),
		stop:  make(chan struct{}),
	}
}

func (i *InmemoryStore) Close() error {
	if i.isRunning() {
		close(i.stop)
	}

	return nil
}

func (i *InmemoryStore) Put(ctx context.Context, user uint32, name string, data []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	files, ok := i.users[user]
	if !ok {
		files = make(map[string][]byte)
		i.users[user] = files
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	files[name] = owned

	return nil
}

func (i *InmemoryStore) Get(ctx context.Context, user uint32, name string) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	data, ok := i.users[user][name]
	if !ok {
		return nil, ErrNotFound
	}

	return data, nil
}

func (i *InmemoryStore) Delete(ctx context.Context, user uint32, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.users[user][name]; !ok {
		return ErrNotFound
	}

	delete(i.users[user], name)

	return nil
}

func (i *InmemoryStore) List(ctx context.Context, user uint32) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	names := make([]string, 0, len(i.users[user]))
	for name := range i.users[user] {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

func (i *InmemoryStore) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()

	stats := Stats{Users: len(i.users)}
	for _, files := range i.users {
		stats.Files += len(files)
	}

	return stats
}

// Backup serialises the whole store as a JSON document of the shape
// {"<user>":{"<name>":"<base64 blob>"}} so a dev server can be stopped
// and restarted without losing its contents.
func (i *InmemoryStore) Backup() ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := []byte("{}")

	var err error
	for user, files := range i.users {
		userKey := escapePathKey(strconv.FormatUint(uint64(user), 10))

		for name, data := range files {
			path := userKey + "." + escapePathKey(name)

			out, err = sjson.SetBytes(out, path, base64.StdEncoding.EncodeToString(data))
			if err != nil {
				return nil, fmt.Errorf("Failed to snapshot %q for user %d: %w", name, user, err)
			}
		}
	}

	return out, nil
}

func (i *InmemoryStore) Restore(snapshot []byte) error {
	users := make(map[uint32]map[string][]byte)

	var restoreErr error

	gjson.ParseBytes(snapshot).ForEach(func(userKey, files gjson.Result) bool {
		user, err := strconv.ParseUint(userKey.String(), 10, 32)
		if err != nil {
			restoreErr = fmt.Errorf("Failed to restore snapshot, bad user key %q: %w", userKey.String(), err)
			return false
		}

		restored := make(map[string][]byte)

		files.ForEach(func(name, blob gjson.Result) bool {
			data, err := base64.StdEncoding.DecodeString(blob.String())
			if err != nil {
				restoreErr = fmt.Errorf("Failed to restore snapshot entry %q: %w", name.String(), err)
				return false
			}

			restored[name.String()] = data
			return true
		})

		if restoreErr != nil {
			return false
		}

		users[uint32(user)] = restored
		return true
	})

	if restoreErr != nil {
		return restoreErr
	}

	i.mu.Lock()
	i.users = users
	i.mu.Unlock()

	return nil
}

// isRunning returns true if Close has not been called
func (i *InmemoryStore) isRunning() bool {
	select {
	case <-i.stop:
		return false

	default:
		return true
	}
}

// escapePathKey escapes the characters gjson/sjson treat as path syntax,
// so filenames with dots stay single keys instead of becoming nesting.
func escapePathKey(key string) string {
	var b strings.Builder

	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteByte(key[i])
	}

	return b.String()
}

var _ Store = (*InmemoryStore)(nil)
