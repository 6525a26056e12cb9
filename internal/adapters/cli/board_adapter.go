package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/claimhub/internal/ports/primary"
)

const clearScreen = "\033[H\033[2J"

// BoardAdapter renders the observer view of the sign-up board.
type BoardAdapter struct {
	service primary.ViewService
	out     io.Writer
}

// NewBoardAdapter creates a new BoardAdapter with the given service.
func NewBoardAdapter(service primary.ViewService, out io.Writer) *BoardAdapter {
	return &BoardAdapter{
		service: service,
		out:     out,
	}
}

// Show renders the board once.
func (a *BoardAdapter) Show(ctx context.Context, deviceID string) error {
	board, err := a.service.Board(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	a.Render(board)
	return nil
}

// Watch re-renders the board after every change until ctx is done.
// With clear set the terminal is wiped before each render.
func (a *BoardAdapter) Watch(ctx context.Context, deviceID string, clear bool) error {
	err := a.service.Watch(ctx, deviceID, func(b *primary.Board) {
		if clear {
			fmt.Fprint(a.out, clearScreen)
		}
		a.Render(b)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Render writes b to the adapter output.
func (a *BoardAdapter) Render(b *primary.Board) {
	fmt.Fprintf(a.out, "\n%s\n", color.New(color.Bold).Sprint(b.Title))
	if b.Instructions != "" {
		fmt.Fprintf(a.out, "%s\n", b.Instructions)
	}

	if b.Device.AssignedTaskID != "" {
		fmt.Fprintf(a.out, "%s\n", color.New(color.FgHiMagenta).Sprintf("You signed up for %s", b.Device.AssignedTaskName))
	}
	fmt.Fprintln(a.out)

	if len(b.Tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks yet")
		fmt.Fprintln(a.out)
		return
	}

	for _, t := range b.Tasks {
		name := t.Name
		if t.Subtitle != "" {
			name = fmt.Sprintf("%s (%s)", t.Name, t.Subtitle)
		}

		marker := ""
		if t.TaskID == b.Device.AssignedTaskID {
			marker = color.New(color.FgHiMagenta).Sprint(" ←")
		}

		fmt.Fprintf(a.out, "  %-10s %s %s %s%s\n", t.TaskID, meter(t), slots(t), name, marker)
	}

	fmt.Fprintf(a.out, "\n%d of %d slots taken\n\n", b.TotalClaimed, b.TotalCapacity)
}

// meter draws one cell per slot, capped so wide tasks stay on one line.
func meter(t primary.TaskState) string {
	const width = 10
	capacity, claimed := t.Capacity, t.Claimed
	if capacity > width {
		claimed = claimed * width / capacity
		capacity = width
	}
	if claimed > capacity {
		claimed = capacity
	}
	return "[" + strings.Repeat("█", claimed) + strings.Repeat("·", capacity-claimed) + "]" + strings.Repeat(" ", width-capacity)
}

func slots(t primary.TaskState) string {
	label := fmt.Sprintf("%2d/%-2d", t.Claimed, t.Capacity)
	switch {
	case t.IsFull:
		return color.New(color.FgRed).Sprint(label + " FULL")
	case t.Remaining == 1:
		return color.New(color.FgYellow).Sprint(label + " LAST")
	default:
		return color.New(color.FgGreen).Sprint(label + "     ")
	}
}
