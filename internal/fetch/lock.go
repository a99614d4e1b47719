package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/scaffold/internal/messages"
)

// cacheLock is an advisory flock on a cache entry's .lock file, shared
// with other scaffold processes filling the same entry.
type cacheLock struct {
	file *os.File
}

var flockFn = unix.Flock

// pauseFn waits between lock attempts and returns early with ctx's error.
var pauseFn = pause

var (
	lockWaitTimeout = 30 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// withCacheLock holds the lock at path while fn runs. Waiting for another
// process stops as soon as ctx is done.
func withCacheLock(ctx context.Context, path string, fn func() error) error {
	lock, err := lockCacheEntry(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.unlock() }()
	return fn()
}

func lockCacheEntry(ctx context.Context, path string) (*cacheLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.FetchOpenLockFmt, path, err)
	}
	if err := waitForLock(ctx, file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf(messages.FetchLockFmt, path, err)
	}
	return &cacheLock{file: file}, nil
}

func (l *cacheLock) unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := flockFn(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// waitForLock retries a non-blocking exclusive flock until it succeeds,
// lockWaitTimeout passes, or ctx is done.
func waitForLock(ctx context.Context, file *os.File) error {
	deadline := time.Now().Add(lockWaitTimeout)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN):
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf(messages.FetchLockTimeoutFmt, lockWaitTimeout)
		}
		if err := pauseFn(ctx, lockPollEvery); err != nil {
			return err
		}
	}
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
