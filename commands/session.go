package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-ssgg-monitor/internal/core/model"
)

// loadSession reads the stored login. A missing or empty file means nobody
// is logged in.
func loadSession(path string) (model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Session{}, model.ErrNoSession
		}
		return model.Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	var f model.SessionFile
	if err := sonic.Unmarshal(data, &f); err != nil {
		return model.Session{}, fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	sess := f.Session()
	if sess.IsZero() {
		return model.Session{}, model.ErrNoSession
	}
	return sess, nil
}

// saveSession writes the session readable by the owner only.
func saveSession(path string, sess model.Session) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := sonic.ConfigStd.MarshalIndent(sess.ToFile(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// removeSession deletes the stored login. It reports whether one existed.
func removeSession(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove session: %w", err)
	}
	return true, nil
}
