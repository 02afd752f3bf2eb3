package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/d4n3436/fergun/core/logger"

	tele "gopkg.in/telebot.v4"
)

var (
	ErrInvalidCommand    = errors.New("telegram: invalid command")
	ErrDuplicateCommand  = errors.New("telegram: command already registered")
	ErrInvalidCallback   = errors.New("telegram: invalid callback")
	ErrDuplicateCallback = errors.New("telegram: callback already registered")
)

// Command is a slash command together with how it is exposed.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never listed.
	AdminOnly bool
	Hidden    bool
	// Aliases are alternative names, with or without the leading slash.
	Aliases []string
}

// Entry is a registered command under its canonical name.
type Entry struct {
	Name string
	Command
}

// Registry holds bot commands and non-interactive callbacks.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func commandKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// RegisterCommand adds cmd under name. Names and aliases share one
// namespace; a clash with either is rejected.
func (r *Registry) RegisterCommand(name string, cmd Command) error {
	key := commandKey(name)
	if key == "" || key == "/" || cmd.Handler == nil || cmd.Description == "" {
		logger.TWire.Warn("register.command.skip", slog.String("name", name), slog.String("reason", "invalid"))
		return fmt.Errorf("%w: %q", ErrInvalidCommand, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	names := []string{key}
	for _, alias := range cmd.Aliases {
		if a := commandKey(alias); a != "" && a != "/" {
			names = append(names, a)
		}
	}
	for _, n := range names {
		if r.takenLocked(n) {
			logger.TWire.Warn("register.command.duplicate", slog.String("name", n))
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, n)
		}
	}
	r.commands[key] = cmd
	for _, alias := range names[1:] {
		r.aliases[alias] = key
	}
	return nil
}

func (r *Registry) takenLocked(name string) bool {
	if _, ok := r.commands[name]; ok {
		return true
	}
	_, ok := r.aliases[name]
	return ok
}

// ListCommands returns commands sorted by name. With visibleOnly, hidden and
// admin-only commands are left out.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for _, e := range r.Entries() {
		if visibleOnly && (e.Hidden || e.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: e.Name, Description: e.Description})
	}
	return list
}

// LookupCommand resolves a name or alias, with or without the slash, to its
// canonical name.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	key := commandKey(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	cmd, ok := r.commands[key]
	if !ok {
		return "", Command{}, false
	}
	return key, cmd, true
}

// Entries returns every command sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.commands))
	for name, cmd := range r.commands {
		out = append(out, Entry{Name: name, Command: cmd})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisterCallback maps an inline button unique key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		logger.TWire.Warn("register.callback.skip", slog.String("key", key), slog.Bool("handler_nil", handler == nil))
		return fmt.Errorf("%w: %q", ErrInvalidCallback, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.TWire.Warn("register.callback.duplicate", slog.String("key", key))
		return fmt.Errorf("%w: %s", ErrDuplicateCallback, key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the sorted callback keys.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that is neither a command nor
// consumed by a session.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// commandSetter is the part of *tele.Bot that publishes the command menu.
type commandSetter interface {
	SetCommands(opts ...interface{}) error
}

// InitBotCommands publishes the visible commands as the bot's menu.
func InitBotCommands(bot commandSetter, reg *Registry) error {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
			slog.Int("commands", len(list)),
		)
		return err
	}
	logger.TWire.Debug("register.commands.set", slog.Int("commands", len(list)))
	return nil
}
