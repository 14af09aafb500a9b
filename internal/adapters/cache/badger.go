package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// defaultCallTimeout bounds individual badger calls.
const defaultCallTimeout = 250 * time.Millisecond

// BadgerOption applies a configuration option to the BadgerBackend.
type BadgerOption func(*BadgerBackend)

// WithCallTimeout bounds each badger call. Calls exceeding the timeout
// fail with ErrTimeout so the resilient layer can degrade to the fallback.
func WithCallTimeout(timeout time.Duration) BadgerOption {
	return func(b *BadgerBackend) {
		if timeout > 0 {
			b.callTimeout = timeout
		}
	}
}

// BadgerBackend is the durable shared cache backend. Entries carry a
// badger-native TTL, so expiry needs no sweeper of our own.
type BadgerBackend struct {
	db          *badger.DB
	callTimeout time.Duration
}

// NewBadgerBackend opens (or creates) a badger store at dir. An empty dir
// opens an in-memory badger instance, which tests use.
func NewBadgerBackend(dir string, opts ...BadgerOption) (*BadgerBackend, error) {
	var badgerOpts badger.Options
	if dir == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(dir)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}

	b := &BadgerBackend{
		db:          db,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Get returns the live value for key or ErrMiss.
func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.bounded(ctx, func() error {
		return b.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrMiss
			}
			if err != nil {
				return fmt.Errorf("get %q: %w", key, err)
			}
			value, err = item.ValueCopy(nil)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key with a badger-native TTL.
func (b *BadgerBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.bounded(ctx, func() error {
		return b.db.Update(func(txn *badger.Txn) error {
			e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
			if err := txn.SetEntry(e); err != nil {
				return fmt.Errorf("set %q: %w", key, err)
			}
			return nil
		})
	})
}

// Delete removes a single key. Deleting an absent key is not an error.
func (b *BadgerBackend) Delete(ctx context.Context, key string) error {
	return b.bounded(ctx, func() error {
		return b.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
			return nil
		})
	})
}

// DeletePrefix collects keys under prefix in a read transaction, then
// removes them through a write batch to stay under transaction size
// limits.
func (b *BadgerBackend) DeletePrefix(ctx context.Context, prefix string) error {
	return b.bounded(ctx, func() error {
		var keys [][]byte
		err := b.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = []byte(prefix)
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("scan prefix %q: %w", prefix, err)
		}
		if len(keys) == 0 {
			return nil
		}

		wb := b.db.NewWriteBatch()
		defer wb.Cancel()
		for _, key := range keys {
			if err := wb.Delete(key); err != nil {
				return fmt.Errorf("batch delete under %q: %w", prefix, err)
			}
		}
		if err := wb.Flush(); err != nil {
			return fmt.Errorf("flush deletes under %q: %w", prefix, err)
		}
		return nil
	})
}

// Close closes the underlying badger database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// bounded runs fn under both the caller's ctx and the configured call
// timeout. The badger call itself is not interruptible, so on timeout the
// goroutine is left to finish in the background and its result dropped.
func (b *BadgerBackend) bounded(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrTimeout, ctx.Err())
		}
		return ctx.Err()
	}
}
