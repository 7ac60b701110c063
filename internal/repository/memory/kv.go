// Package memory provides a process-local key-value backend for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"github.com/kirinyoku/citypulse/internal/repository"
)

type KV struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
	fail   error
}

func New() *KV {
	return &KV{data: make(map[string]string)}
}

func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	if err := kv.check(); err != nil {
		return "", false, err
	}

	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *KV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if err := kv.check(); err != nil {
		return err
	}

	kv.data[key] = value
	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if err := kv.check(); err != nil {
		return err
	}

	delete(kv.data, key)
	return nil
}

func (kv *KV) Close() error {
	kv.mu.Lock()
	kv.closed = true
	kv.mu.Unlock()
	return nil
}

// Fail makes every subsequent call return err; nil restores normal behaviour.
func (kv *KV) Fail(err error) {
	kv.mu.Lock()
	kv.fail = err
	kv.mu.Unlock()
}

func (kv *KV) check() error {
	if kv.closed {
		return repository.ErrClosed
	}

	return kv.fail
}
