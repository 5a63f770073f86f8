package top

import (
	"sync"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/presentation/display"
)

// StateManager holds what the screen shows in a thread-safe manner. Builds
// finish on the debouncer goroutine while keys arrive on the main loop.
type StateManager struct {
	mu sync.RWMutex

	view    dashboard.View
	hasView bool
	err     error

	isLoading     bool
	statusMessage string
	showHelp      bool
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{}
}

// SetView records the result of a build. A failed build keeps the previous
// charts on screen and reports the error in the status line.
func (sm *StateManager) SetView(view dashboard.View, err error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.isLoading = false
	sm.err = err
	if err != nil {
		return
	}
	sm.view = view
	sm.hasView = true
	sm.statusMessage = ""
}

// View returns the last successful view.
func (sm *StateManager) View() (dashboard.View, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.view, sm.hasView
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.isLoading = isLoading
	sm.statusMessage = message
}

// SetStatus shows a transient message in the footer.
func (sm *StateManager) SetStatus(message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.statusMessage = message
}

// ToggleHelp shows or hides the help screen.
func (sm *StateManager) ToggleHelp() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.showHelp = !sm.showHelp
}

// HelpShown reports whether the help screen is open.
func (sm *StateManager) HelpShown() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.showHelp
}

// Screen assembles the frame for the given selection.
func (sm *StateManager) Screen(title string, fields []dashboard.Field, selection dashboard.FilterState) display.Screen {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s := display.Screen{
		Title:    title,
		ShowHelp: sm.showHelp,
		Status:   sm.statusMessage,
	}
	enabled, err := dashboard.Apply(fields, selection)
	if err != nil {
		enabled = dashboard.NewCascade(fields...)
	}
	for _, f := range fields {
		s.Selection = append(s.Selection, display.SelectionItem{
			Label:   f.Label,
			Value:   optionLabel(sm.view.Options[f.Name], selection.Get(f.Name)),
			Enabled: enabled.Enabled(f.Name),
		})
	}

	switch {
	case !sm.hasView && sm.isLoading:
		s.Message = "Cargando datos..."
	case !sm.hasView && sm.err != nil:
		s.Message = "Error: " + sm.err.Error()
	default:
		s.Charts = sm.view.Charts
		if sm.view.Message != "" {
			s.Message = sm.view.Message
		}
	}
	if sm.hasView && sm.err != nil && s.Status == "" {
		s.Status = "Error: " + sm.err.Error()
	}
	if sm.isLoading && s.Status == "" {
		s.Status = "Actualizando..."
	}
	return s
}

// optionLabel returns the display label of value, or value itself.
func optionLabel(options []dashboard.Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
