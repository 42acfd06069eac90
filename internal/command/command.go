// ABOUTME: Console command framework: senders, permissions, message keys and the dispatcher.
// ABOUTME: Commands report back through their sender and announce themselves to administrators.

package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Message keys resolved through Messages.
const (
	MsgPermissionDenied = "commands.generic.permission"
	MsgUnknownCommand   = "commands.generic.notFound"
	MsgStopStart        = "commands.stop.start"
	MsgStopUsage        = "commands.stop.usage"
	MsgStopDescription  = "synapse.command.stop.description"
)

// Messages maps message keys to their English text.
var Messages = map[string]string{
	MsgPermissionDenied: "You do not have permission to use this command",
	MsgUnknownCommand:   "Unknown command. Try /help for a list of commands",
	MsgStopStart:        "Stopping the server...",
	MsgStopUsage:        "/stop [message] [force]",
	MsgStopDescription:  "Stops the server",
}

// Translate resolves key, returning key itself when it has no text.
func Translate(key string) string {
	if text, ok := Messages[key]; ok {
		return text
	}
	return key
}

// Sender is whoever issued a command.
type Sender interface {
	Name() string
	HasPermission(permission string) bool
	SendMessage(message string)
}

// Broadcaster announces a command to the administrators.
type Broadcaster interface {
	BroadcastCommandMessage(source Sender, message string)
}

// Command is a named console command.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Permission() string
	Execute(ctx context.Context, sender Sender, alias string, args []string) bool
}

// TestPermission reports whether sender may run cmd, telling the sender
// when it may not. Commands without a permission are open to everyone.
func TestPermission(cmd Command, sender Sender) bool {
	perm := cmd.Permission()
	if perm == "" || sender.HasPermission(perm) {
		return true
	}
	sender.SendMessage(Translate(MsgPermissionDenied))
	return false
}

// Console is the sender for commands typed on the process's stdin. It holds
// every permission.
type Console struct {
	Out io.Writer
}

func (Console) Name() string { return "CONSOLE" }

func (Console) HasPermission(string) bool { return true }

func (c Console) SendMessage(message string) {
	if c.Out != nil {
		fmt.Fprintln(c.Out, message)
	}
}

// Admins broadcasts command messages to the log, tagged with the configured
// administrator names, in the form "[source: message]".
type Admins struct {
	Names  []string
	Logger *slog.Logger
}

func (a Admins) BroadcastCommandMessage(source Sender, message string) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(fmt.Sprintf("[%s: %s]", source.Name(), message), "admins", a.Names)
}

// Map dispatches command lines to registered commands.
type Map struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string
}

// NewMap returns an empty command map.
func NewMap() *Map {
	return &Map{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds cmd under its name and any aliases. Names are case-insensitive.
func (m *Map) Register(cmd Command, aliases ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.ToLower(cmd.Name())
	m.commands[name] = cmd
	for _, alias := range aliases {
		m.aliases[strings.ToLower(alias)] = name
	}
}

// Lookup finds a command by name or alias.
func (m *Map) Lookup(label string) (Command, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	label = strings.ToLower(label)
	if name, ok := m.aliases[label]; ok {
		label = name
	}
	cmd, ok := m.commands[label]
	return cmd, ok
}

// Names returns the registered command names, sorted.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.commands))
	for name := range m.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one command line such as "stop maintenance". A leading "/"
// is accepted. It returns false when no command matched.
func (m *Map) Dispatch(ctx context.Context, sender Sender, line string) bool {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return false
	}

	cmd, ok := m.Lookup(fields[0])
	if !ok {
		sender.SendMessage(Translate(MsgUnknownCommand))
		return false
	}
	return cmd.Execute(ctx, sender, fields[0], fields[1:])
}
