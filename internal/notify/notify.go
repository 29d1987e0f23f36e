// Package notify delivers transient user-facing messages (toasts).
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Level is the severity of a notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one transient message
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows notifications to the user
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notification)

// Notify implements Notifier
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Error is shorthand for an error-level notification
func Error(msg string) Notification {
	return Notification{Level: LevelError, Message: msg}
}

// Success is shorthand for a success-level notification
func Success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg}
}

// Recorder collects notifications in order. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of everything recorded so far
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns everything recorded and resets the recorder
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Console prints notifications, one per line, for the CLI
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

var consoleIcons = map[Level]string{
	LevelInfo:    "ℹ",
	LevelSuccess: "✓",
	LevelWarning: "!",
	LevelError:   "✗",
}

// Notify implements Notifier
func (c *Console) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	icon, ok := consoleIcons[n.Level]
	if !ok {
		icon = "-"
	}
	fmt.Fprintf(c.out, "%s %s\n", icon, n.Message)
}
