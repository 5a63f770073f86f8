package top

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
	"github.com/penwyp/go-ssgg-monitor/internal/presentation/display"
	"github.com/penwyp/go-ssgg-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-ssgg-monitor/internal/util"
)

const screenTitle = "SSGG Monitor - Consumo Hídrico"

// Option customises the orchestrator's terminal collaborators.
type Option func(*Orchestrator)

// WithDisplay replaces the terminal display.
func WithDisplay(d DisplayController) Option {
	return func(o *Orchestrator) { o.display = d }
}

// WithInput replaces the raw-mode keyboard.
func WithInput(in InputHandler) Option {
	return func(o *Orchestrator) { o.keyboard = in }
}

// WithSelectionSource replaces the selection file watcher.
func WithSelectionSource(s SelectionSource) Option {
	return func(o *Orchestrator) { o.watcher = s }
}

// Orchestrator coordinates all components for the top command
type Orchestrator struct {
	config *TopConfig

	dataLoader   *DataLoader
	page         *dashboard.WaterPage
	controller   *dashboard.Controller
	refreshCtrl  *RefreshController
	stateManager *StateManager

	display  DisplayController
	keyboard InputHandler
	watcher  SelectionSource

	drawMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *TopConfig, source dashboard.WaterSource, store dashboard.SnapshotStore, tp *util.TimeProvider, opts ...Option) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	dataLoader, err := NewDataLoader(config.Dashboard, source, store, tp)
	if err != nil {
		return nil, fmt.Errorf("failed to create data loader: %w", err)
	}

	o := &Orchestrator{
		config:       config,
		dataLoader:   dataLoader,
		page:         dashboard.NewWaterPage(dataLoader.Loader(), config.Dashboard, tp),
		stateManager: NewStateManager(),
	}
	o.controller = dashboard.NewController(o.page, config.Dashboard.Debounce, o.onView)
	o.refreshCtrl = NewRefreshController(dataLoader, o.page, o.controller)
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Controller exposes the cascade driving the screen.
func (o *Orchestrator) Controller() *dashboard.Controller {
	return o.controller
}

// State exposes what is currently on screen.
func (o *Orchestrator) State() *StateManager {
	return o.stateManager
}

// Run starts the orchestrator main loop
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting SSGG Monitor Top...")
	defer o.Close()

	if o.keyboard == nil {
		keyboard, err := interaction.NewKeyboardReader()
		if err != nil {
			return fmt.Errorf("failed to initialize keyboard: %w", err)
		}
		o.keyboard = keyboard
	}
	if o.display == nil {
		o.display = display.NewTerminalDisplay()
	}
	if o.watcher == nil && o.config.SelectionFile != "" {
		watcher, err := interaction.NewSelectionWatcher(o.config.SelectionFile)
		if err != nil {
			return fmt.Errorf("failed to start selection watcher: %w", err)
		}
		o.watcher = watcher
	}

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	o.stateManager.SetLoadingState(true, "Cargando datos...")
	o.updateDisplay()

	if _, err := o.refreshCtrl.InitialLoad(ctx); err != nil {
		util.LogErrorf("Initial load failed: %v", err)
	}

	refreshTicker := time.NewTicker(o.config.RefreshInterval)
	defer refreshTicker.Stop()
	persistTicker := time.NewTicker(o.config.PersistInterval)
	defer persistTicker.Stop()

	var selections <-chan interaction.Selection
	if o.watcher != nil {
		selections = o.watcher.Events()
	}

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down SSGG Monitor Top...")
			return nil

		case <-refreshTicker.C:
			o.stateManager.SetLoadingState(true, "")
			o.refreshCtrl.RefreshData(ctx)

		case <-persistTicker.C:
			o.refreshCtrl.Persist(ctx)

		case sel, ok := <-selections:
			if !ok {
				selections = nil
				continue
			}
			o.applySelection(ctx, sel)

		case keyEvent, ok := <-o.keyboard.Events():
			if !ok {
				return nil
			}
			if o.handleKeyboard(ctx, keyEvent) {
				return nil
			}
			o.updateDisplay()
		}
	}
}

// onView receives every build the controller keeps.
func (o *Orchestrator) onView(view dashboard.View, err error) {
	if err != nil {
		util.LogErrorf("Failed to build %s view: %v", view.Page, err)
	}
	o.stateManager.SetView(view, err)
	o.updateDisplay()
}

// updateDisplay updates the terminal display
func (o *Orchestrator) updateDisplay() {
	if o.display == nil {
		return
	}
	o.drawMu.Lock()
	defer o.drawMu.Unlock()
	o.display.Render(o.stateManager.Screen(screenTitle, o.page.Fields(), o.controller.State()))
}

// cycleKeys maps keys to the field they cycle.
var cycleKeys = map[rune]string{
	'y': "year", 'Y': "year",
	'm': "month", 'M': "month",
	'd': "day", 'D': "day",
}

// handleKeyboard applies one key. It returns true when the user quits.
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	if event.Type == interaction.KeyEscape {
		if o.stateManager.HelpShown() {
			o.stateManager.ToggleHelp()
			return false
		}
		return true
	}

	switch event.Key {
	case 'q', 'Q', interaction.KeyCtrlC:
		return true
	case 'h', 'H':
		o.stateManager.ToggleHelp()
	case 'c', 'C':
		o.stateManager.SetLoadingState(true, "")
		o.controller.Clear(ctx)
	case 'r', 'R':
		o.stateManager.SetLoadingState(true, "Recargando datos...")
		o.updateDisplay()
		if _, err := o.refreshCtrl.Reload(ctx); err != nil {
			util.LogErrorf("Failed to reload: %v", err)
		}
	default:
		field, ok := cycleKeys[event.Key]
		if !ok {
			return false
		}
		if err := o.controller.Cycle(ctx, field); err != nil {
			o.stateManager.SetStatus(cycleError(field, err))
			return false
		}
		o.stateManager.SetLoadingState(true, "")
	}
	return false
}

func cycleError(field string, err error) string {
	if errors.Is(err, dashboard.ErrFieldDisabled) {
		for _, f := range dashboard.WaterFields {
			if f.Name == field {
				return fmt.Sprintf("Seleccione primero el campo anterior a %s", f.Label)
			}
		}
	}
	return err.Error()
}

// applySelection replaces the cascade with a selection read from file.
func (o *Orchestrator) applySelection(ctx context.Context, sel interaction.Selection) {
	util.LogDebugf("Applying external selection %+v", sel)
	if err := o.controller.Apply(ctx, sel.Map()); err != nil {
		o.stateManager.SetStatus("Selección inválida: " + err.Error())
		o.updateDisplay()
		return
	}
	o.stateManager.SetLoadingState(true, "")
	o.updateDisplay()
}

// Close saves pending snapshots and releases the terminal inputs. It is
// safe to call more than once.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.refreshCtrl.Persist(context.Background())

		var errs *multierror.Error
		if o.keyboard != nil {
			if err := o.keyboard.Close(); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		if o.watcher != nil {
			if err := o.watcher.Close(); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		o.closeErr = errs.ErrorOrNil()
	})
	return o.closeErr
}
