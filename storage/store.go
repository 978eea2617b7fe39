package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("No file with that name is stored for this user")

type Stats struct {
	Users int `json:"users"`
	Files int `json:"files"`
}

// Store holds backed up files keyed by the owning user id. Every user
// only ever sees their own namespace.
type Store interface {
	Put(ctx context.Context, user uint32, name string, data []byte) error
	Get(ctx context.Context, user uint32, name string) ([]byte, error)
	Delete(ctx context.Context, user uint32, name string) error
	List(ctx context.Context, user uint32) ([]string, error)

	Stats() Stats

	Restore(snapshot []byte) error
	Backup() ([]byte, error)

	Close() error
}
