package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/recvault/recvault/pkg/errclass"
)

// LockFileName guards the recordings root against a second recorder instance
// starting a session while one is running.
const LockFileName = ".recvault.lock"

// lockInfo is the lock file content, written for doctor diagnostics.
type lockInfo struct {
	PID        int       `json:"pid"`
	SessionID  string    `json:"session_id"`
	AcquiredAt time.Time `json:"acquired_at"`
}

type instanceLock struct {
	path string
	held bool
}

func newInstanceLock(root string) *instanceLock {
	return &instanceLock{path: filepath.Join(root, LockFileName)}
}

// acquire takes the lock with O_CREAT|O_EXCL so the check and the create are
// one atomic filesystem operation.
func (l *instanceLock) acquire(sessionID string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errclass.ErrInstanceLocked.WithMessage("another recorder instance holds the recordings root")
		}
		return fmt.Errorf("create instance lock: %w", err)
	}
	defer f.Close()

	info := lockInfo{PID: os.Getpid(), SessionID: sessionID, AcquiredAt: time.Now().UTC()}
	data, err := json.Marshal(info)
	if err != nil {
		os.Remove(l.path)
		return fmt.Errorf("marshal lock info: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		os.Remove(l.path)
		return fmt.Errorf("write lock info: %w", err)
	}

	l.held = true
	return nil
}

func (l *instanceLock) release() {
	if !l.held {
		return
	}
	os.Remove(l.path)
	l.held = false
}
