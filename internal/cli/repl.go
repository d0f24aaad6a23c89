package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/services"
)

// command is one REPL verb.
type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

var errUsage = errors.New("usage")

// runREPL reads one command per line from scanner and dispatches it to
// commands. Errors are reported to out and never end the loop; it returns
// on EOF, a cancelled ctx, or "exit"/"quit".
func runREPL(ctx context.Context, commands map[string]command, prompt func() string, interactive bool, scanner *bufio.Scanner, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		if interactive {
			fmt.Fprint(out, prompt())
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		name, args := strings.ToLower(parts[0]), parts[1:]

		switch name {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		case "help":
			printHelp(out, commands)
			continue
		}

		cmd, ok := commands[name]
		if !ok {
			fmt.Fprintln(out, "Unknown command:", name)
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintf(out, "Usage: %s %s\n", name, cmd.usage)
				continue
			}
			fmt.Fprintln(out, describeError(err))
		}
	}
}

func printHelp(out io.Writer, commands map[string]command) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Available commands:")
	for _, n := range names {
		c := commands[n]
		fmt.Fprintf(out, "  %-10s %-28s %s\n", n, c.usage, c.help)
	}
	fmt.Fprintf(out, "  %-10s %-28s %s\n", "exit", "", "leave the program")
}

// describeError turns service errors into a one-line message for the
// operator.
func describeError(err error) string {
	var cancelErr *services.CancelError
	if errors.As(err, &cancelErr) {
		var b strings.Builder
		fmt.Fprintf(&b, "Cancellation of sale %s failed, nothing was changed:", cancelErr.SaleID)
		for _, step := range cancelErr.Steps() {
			fmt.Fprintf(&b, "\n  - %v", step)
		}
		return b.String()
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + err.Error()
	case errors.Is(err, common.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, common.ErrDuplicate):
		return "Already exists: " + err.Error()
	case errors.Is(err, common.ErrSeatUnavailable):
		return "Seat unavailable: " + err.Error()
	case errors.Is(err, common.ErrInsufficientStock):
		return "Not enough stock: " + err.Error()
	case errors.Is(err, common.ErrDraftLimit):
		return fmt.Sprintf("A sale holds at most %d different products: %v", services.MaxDraftProducts, err)
	case errors.Is(err, common.ErrInvalidState):
		return "Not allowed now: " + err.Error()
	case errors.Is(err, common.ErrConcurrentModification):
		return "Changed by someone else, try again: " + err.Error()
	case errors.Is(err, common.ErrStorage):
		return "Storage error: " + err.Error()
	}
	return "Error: " + err.Error()
}
