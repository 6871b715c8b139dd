// Package notify defines the notification collaborator: the engine reports
// user-visible outcomes through it and never renders anything itself.
package notify

import (
	"fmt"
	"log"
	"sync"
)

// Notifier receives user-visible notifications.
type Notifier interface {
	Success(message string)
	Error(message string)
	Progress(message string)
}

// Promise runs fn, surfacing the loading message up front and then either
// the success message or the error's own message.
func Promise(n Notifier, fn func() error, loading, success string) error {
	if loading != "" {
		n.Progress(loading)
	}
	if err := fn(); err != nil {
		n.Error(err.Error())
		return err
	}
	n.Success(success)
	return nil
}

// Log writes notifications to the process log. Used by headless commands.
type Log struct{}

func (Log) Success(message string) { log.Printf("ok: %s", message) }
func (Log) Error(message string)   { log.Printf("error: %s", message) }
func (Log) Progress(message string) { log.Printf("...: %s", message) }

// Recorder captures notifications for tests and for the TUI status line.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Message is one recorded notification.
type Message struct {
	Level string // "success", "error" or "progress"
	Text  string
}

func (r *Recorder) Success(message string) { r.append("success", message) }
func (r *Recorder) Error(message string)   { r.append("error", message) }
func (r *Recorder) Progress(message string) { r.append("progress", message) }

func (r *Recorder) append(level, text string) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Level: level, Text: text})
	r.mu.Unlock()
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// String renders the recorded messages, newest last.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := ""
	for _, m := range r.messages {
		out += fmt.Sprintf("[%s] %s\n", m.Level, m.Text)
	}
	return out
}
