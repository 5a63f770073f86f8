package top

import (
	"github.com/penwyp/go-ssgg-monitor/internal/presentation/display"
	"github.com/penwyp/go-ssgg-monitor/internal/presentation/interaction"
)

// DisplayController handles terminal display operations
type DisplayController interface {
	// EnterAlternateScreen switches to alternate terminal screen
	EnterAlternateScreen()
	// ExitAlternateScreen returns to normal terminal screen
	ExitAlternateScreen()
	// Render draws one frame
	Render(screen display.Screen)
}

// InputHandler processes keyboard and other input events
type InputHandler interface {
	// Events returns a channel of keyboard events
	Events() <-chan interaction.KeyEvent
	// Close cleans up input handler resources
	Close() error
}

// SelectionSource delivers selections written by other programs.
type SelectionSource interface {
	Events() <-chan interaction.Selection
	Close() error
}
