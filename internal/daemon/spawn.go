package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/paths"
)

const spawnWait = 5 * time.Second

var (
	isListeningFn      = isListening
	spawnHostFn        = spawnHost
	waitForHostFn      = waitForHost
	acquireSpawnLockFn = acquireSpawnLock
	execCommandFn      = exec.Command
)

// EnsureHost makes sure something accepts connections at network/address.
// When nothing does, it starts a detached headless host ("serve") from the
// current executable and waits for it. Concurrent callers are serialized by
// a lock file so only one host is spawned.
func EnsureHost(ctx context.Context, network, address string) error {
	if isListeningFn(ctx, network, address) {
		return nil
	}

	if err := paths.EnsureDir(paths.RuntimeDir()); err != nil {
		return fmt.Errorf("creating runtime dir: %w", err)
	}
	releaseLock, err := acquireSpawnLockFn(paths.LockPath())
	if err != nil {
		return fmt.Errorf("acquiring spawn lock: %w", err)
	}
	defer releaseLock() //nolint:errcheck

	// Another caller may have spawned it while we waited for the lock.
	if isListeningFn(ctx, network, address) {
		return nil
	}

	if err := spawnHostFn(network, address); err != nil {
		return err
	}
	return waitForHostFn(ctx, network, address)
}

func acquireSpawnLock(path string) (func() error, error) {
	lockFile, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	return func() error {
		unlockErr := unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
		closeErr := lockFile.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

func spawnHost(network, address string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding executable: %w", err)
	}

	cmd, cleanup, err := newHostCommand(exe, network, address)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning host: %w", err)
	}

	// Detach: don't wait for the host process
	go cmd.Wait() //nolint: errcheck
	return nil
}

func newHostCommand(exe, network, address string) (*exec.Cmd, func(), error) {
	args := []string{"serve"}
	if network == "tcp" {
		args = append(args, "--tcp-addr", address)
	} else {
		args = append(args, "--socket-path", address)
	}
	cmd := execCommandFn(exe, args...)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd, func() {
		_ = devNull.Close()
	}, nil
}

func waitForHost(ctx context.Context, network, address string) error {
	ctx, cancel := context.WithTimeout(ctx, spawnWait)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if isListening(ctx, network, address) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("host did not start within %s", spawnWait)
		case <-ticker.C:
		}
	}
}

func isListening(ctx context.Context, network, address string) bool {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return ipc.NewClient(network, address).Ping(ctx) == nil
}
