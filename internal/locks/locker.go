// Package locks serializes mutations of one entity id. A Locker hands out
// exclusive per-key locks; services take them around the read-check-write
// cycle of a version append so two writers never race on the same id.
package locks

import (
	"context"
	"sort"
)

// Unlock releases a lock obtained from a Locker. It is safe to call once.
type Unlock func()

// Locker grants exclusive locks per key. Lock blocks until the lock is held
// or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Key builds the lock key of an entity, e.g. Key("seat", "A1").
func Key(kind, id string) string {
	return kind + ":" + id
}

// LockAll takes every key in sorted order, so callers locking overlapping
// sets cannot deadlock. Duplicate keys are locked once. On failure all
// locks taken so far are released.
func LockAll(ctx context.Context, l Locker, keys ...string) (Unlock, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var held []Unlock
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}

	prev := ""
	for i, k := range sorted {
		if i > 0 && k == prev {
			continue
		}
		prev = k

		u, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, u)
	}
	return release, nil
}
