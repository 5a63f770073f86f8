package interaction

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

// Selection is the JSON document read from the selection file. Numbers and
// strings are both accepted.
type Selection struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// Map returns the selection keyed by field name.
func (s Selection) Map() map[string]string {
	return map[string]string{"year": s.Year, "month": s.Month, "day": s.Day}
}

type rawSelection struct {
	Year  interface{} `json:"year"`
	Month interface{} `json:"month"`
	Day   interface{} `json:"day"`
}

// ReadSelection parses the selection file at path.
func ReadSelection(path string) (Selection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Selection{}, err
	}
	var raw rawSelection
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Selection{}, fmt.Errorf("invalid selection file %s: %w", path, err)
	}
	return Selection{Year: text(raw.Year), Month: text(raw.Month), Day: text(raw.Day)}, nil
}

func text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%d", int(x))
	default:
		return fmt.Sprint(x)
	}
}

// SelectionWatcher emits the content of a selection file every time it is
// written. The parent directory is watched so that editors replacing the
// file are seen too.
type SelectionWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan Selection
	done    chan struct{}
	once    sync.Once
}

// NewSelectionWatcher starts watching path. The file need not exist yet.
func NewSelectionWatcher(path string) (*SelectionWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	sw := &SelectionWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan Selection, 10),
		done:    make(chan struct{}),
	}
	go sw.processEvents()
	return sw, nil
}

func (sw *SelectionWatcher) processEvents() {
	defer close(sw.events)
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			sel, err := ReadSelection(sw.path)
			if err != nil {
				util.LogWarnf("Ignoring selection file change: %v", err)
				continue
			}
			select {
			case sw.events <- sel:
			case <-sw.done:
				return
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("Selection file monitoring error: " + err.Error())
		}
	}
}

// Events returns the parsed selections.
func (sw *SelectionWatcher) Events() <-chan Selection {
	return sw.events
}

// Close stops watching.
func (sw *SelectionWatcher) Close() error {
	var err error
	sw.once.Do(func() {
		close(sw.done)
		err = sw.watcher.Close()
	})
	return err
}
