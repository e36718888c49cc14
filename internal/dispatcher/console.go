package dispatcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// Console words handled by Serve itself.
var (
	quitWords = []string{"quit", "q", "exit"}
	helpWords = []string{"help", "?"}
)

// ParseLine splits an input line into an event. Commands are case
// insensitive; blank lines and lines starting with '#' yield ok=false.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Event{}, false
	}
	fields := strings.Fields(line)
	return Event{
		Command:   strings.ToLower(fields[0]),
		Args:      fields[1:],
		Timestamp: time.Now(),
	}, true
}

// Serve reads one command per line from r, dispatches it and writes one
// reply line per command to w. It returns nil on EOF, on a quit command or
// when ctx is done. Handler errors are replied and do not end the session.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = l
		}

		e, ok := ParseLine(line)
		if !ok {
			continue
		}
		if d.builtin(e, w) {
			return nil
		}
	}
}

// builtin handles console words and dispatches everything else. It
// reports whether the session should end.
func (d *Dispatcher) builtin(e Event, w io.Writer) bool {
	switch {
	case slices.Contains(quitWords, e.Command) && !d.HasHandler(e.Command):
		d.logger.Info("operator ended the session")
		fmt.Fprintln(w, "bye")
		return true
	case slices.Contains(helpWords, e.Command) && !d.HasHandler(e.Command):
		for _, line := range d.Usage() {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w, strings.Join(quitWords, ", ")+": end the session")
		return false
	}

	result, err := d.Dispatch(e)
	if err != nil {
		d.logger.Error("command rejected", "command", e.Command, "error", err)
		fmt.Fprintf(w, "error: %v\n", err)
		return false
	}
	if result == nil {
		fmt.Fprintln(w, "ok")
	} else {
		fmt.Fprintf(w, "ok: %+v\n", result)
	}
	return false
}
