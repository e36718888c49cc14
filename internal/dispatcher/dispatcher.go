// Package dispatcher routes operator console commands to their handlers.
package dispatcher

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnknownCommand is returned by Dispatch when no handler is registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicate is returned by Register when a name is already taken.
	ErrDuplicate = errors.New("command already registered")
)

// Event is one operator command, such as "speed 40" or "light on".
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result that the console
// echoes back to the operator.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*entry)

type entry struct {
	name    string
	help    string
	aliases []string
	logged  bool
	handle  HandlerFunc
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(e *entry) { e.logged = true }
}

// Help sets the one-line description listed by the console help command.
func Help(text string) Option {
	return func(e *entry) { e.help = text }
}

// Aliases registers extra names that resolve to the same handler.
func Aliases(names ...string) Option {
	return func(e *entry) { e.aliases = append(e.aliases, names...) }
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger  Logger
	metrics *metrics

	mu      sync.RWMutex
	entries map[string]*entry
	// names maps every command name and alias to its canonical name.
	names map[string]string
}

// New creates a new Dispatcher with the given logger. Metrics go to the
// global OTel meter, which is a no-op unless a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		logger:  logger,
		metrics: m,
		entries: make(map[string]*entry),
		names:   make(map[string]string),
	}, nil
}

// Register adds a handler for the given command. Names are case insensitive.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) error {
	e := &entry{name: strings.ToLower(command), handle: h}
	for _, opt := range opts {
		opt(e)
	}

	keys := append([]string{e.name}, e.aliases...)
	for i, k := range keys {
		keys[i] = strings.ToLower(k)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range keys {
		if _, taken := d.names[k]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicate, k)
		}
	}
	if e.logged {
		e.handle = d.withLogging(e.name, e.handle)
	}
	d.entries[e.name] = e
	for _, k := range keys {
		d.names[k] = e.name
	}
	return nil
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(ev Event) (any, error) {
	d.mu.RLock()
	name, ok := d.names[strings.ToLower(ev.Command)]
	var e *entry
	if ok {
		e = d.entries[name]
	}
	d.mu.RUnlock()

	if e == nil {
		d.metrics.record(ev.Command, 0, ErrUnknownCommand)
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, ev.Command)
	}

	start := time.Now()
	result, err := e.handle(ev)
	d.metrics.record(name, time.Since(start), err)
	return result, err
}

// HasHandler returns true if a handler is registered for the command or
// one of its aliases.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.names[strings.ToLower(command)]
	return ok
}

// Usage lists the registered commands in name order, one per line.
func (d *Dispatcher) Usage() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	slices.Sort(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		e := d.entries[name]
		line := name
		if len(e.aliases) > 0 {
			line += " (" + strings.Join(e.aliases, ", ") + ")"
		}
		if e.help != "" {
			line += ": " + e.help
		}
		lines = append(lines, line)
	}
	return lines
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling command", "command", command, "args", e.Args)

		result, err := h(e)

		if err != nil {
			d.logger.Error("command failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "command", command, "duration", time.Since(start))
		}
		return result, err
	}
}
