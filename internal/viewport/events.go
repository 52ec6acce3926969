package viewport

import (
	"context"
	"strconv"
	"strings"
)

// Command is a discrete viewport action produced by input mapping.
type Command int

const (
	CommandNone Command = iota
	CommandPrevPage
	CommandNextPage
	CommandZoomIn
	CommandZoomOut
	CommandToggleFullscreen
)

// KeyEvent is a keyboard event as reported by the host surface.
type KeyEvent struct {
	// Key is the logical key name, e.g. "ArrowLeft", "+", "-".
	Key string

	Ctrl bool

	// FromTextInput marks events originating inside a focused text input.
	// Those never drive the viewport: typing "-" into the page field must
	// not zoom out.
	FromTextInput bool
}

// WheelEvent is a scroll wheel event.
type WheelEvent struct {
	// DeltaY is positive when scrolling down.
	DeltaY float64

	Ctrl bool
}

// MapKey translates a keyboard event into a viewport command. Arrow keys
// navigate pages; plus and minus step the zoom table. Events from text inputs
// are always ignored.
func MapKey(ev KeyEvent) Command {
	if ev.FromTextInput {
		return CommandNone
	}

	switch ev.Key {
	case "ArrowLeft", "PageUp":
		return CommandPrevPage
	case "ArrowRight", "PageDown":
		return CommandNextPage
	case "+", "=":
		return CommandZoomIn
	case "-", "_":
		return CommandZoomOut
	default:
		return CommandNone
	}
}

// MapWheel translates a wheel event into a viewport command. Only
// ctrl+wheel drives zoom; plain scrolling is left to the host surface.
func MapWheel(ev WheelEvent) Command {
	if !ev.Ctrl {
		return CommandNone
	}
	switch {
	case ev.DeltaY < 0:
		return CommandZoomIn
	case ev.DeltaY > 0:
		return CommandZoomOut
	default:
		return CommandNone
	}
}

// ParsePageInput validates free-form page input. Non-numeric input is
// rejected; numeric input is clamped into [1, pageCount].
func ParsePageInput(input string, pageCount int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, false
	}
	return clampPage(n, pageCount), true
}

// Apply executes a mapped command against the controller. CommandNone is a
// no-op.
func (c *Controller) Apply(ctx context.Context, cmd Command) error {
	switch cmd {
	case CommandPrevPage:
		return c.PrevPage(ctx)
	case CommandNextPage:
		return c.NextPage(ctx)
	case CommandZoomIn:
		return c.ZoomIn(ctx)
	case CommandZoomOut:
		return c.ZoomOut(ctx)
	case CommandToggleFullscreen:
		c.ToggleFullscreen()
		return nil
	default:
		return nil
	}
}
