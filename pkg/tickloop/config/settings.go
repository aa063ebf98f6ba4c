package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/tickloop/pkg/tickloop"
)

// Settings is the host configuration for a scheduler run.
type Settings struct {
	TickPeriod    Duration   `yaml:"tick_period" json:"tick_period"`
	TableCapacity int        `yaml:"table_capacity" json:"table_capacity"`
	InboxSize     int        `yaml:"inbox_size" json:"inbox_size"`
	Metrics       bool       `yaml:"metrics" json:"metrics"`
	Tracing       bool       `yaml:"tracing" json:"tracing"`
	Journal       Journal    `yaml:"journal" json:"journal"`
	Log           Log        `yaml:"log" json:"log"`
	Tasks         []TaskSpec `yaml:"tasks" json:"tasks"`
}

// Journal configures snapshot persistence. An empty Path disables it.
type Journal struct {
	Path  string `yaml:"path" json:"path"`
	Every uint64 `yaml:"every" json:"every"`
}

// Log configures the host logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// TaskSpec describes one task to register.
type TaskSpec struct {
	Name        string         `yaml:"name" json:"name"`
	Handler     string         `yaml:"handler" json:"handler"`
	Capacity    int            `yaml:"capacity" json:"capacity"`
	PayloadSize int            `yaml:"payload_size" json:"payload_size"`
	Emergency   bool           `yaml:"emergency" json:"emergency"`
	Init        bool           `yaml:"init" json:"init"`
	Status      string         `yaml:"status" json:"status"`
	Params      map[string]any `yaml:"params" json:"params"`
	Events      []EventSpec    `yaml:"events" json:"events"`
}

// EventSpec is an event admitted right after registration.
type EventSpec struct {
	Kind    string `yaml:"kind" json:"kind"`
	Ticks   uint32 `yaml:"ticks" json:"ticks"`
	Payload string `yaml:"payload" json:"payload"`
}

// Defaults for unset Settings fields.
const (
	DefaultTickPeriod   = Duration(10 * time.Millisecond)
	DefaultInboxSize    = 64
	DefaultJournalEvery = 100
	DefaultTaskCapacity = 4
)

// Sentinel errors for settings validation.
var (
	// ErrNoTasks indicates the configuration registers nothing.
	ErrNoTasks = errors.New("no tasks configured")

	// ErrDuplicateTask indicates two tasks share a name.
	ErrDuplicateTask = errors.New("duplicate task name")
)

// Defaults returns Settings with every default applied and no tasks.
func Defaults() Settings {
	var s Settings
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.TickPeriod <= 0 {
		s.TickPeriod = DefaultTickPeriod
	}
	if s.TableCapacity <= 0 {
		s.TableCapacity = tickloop.DefaultCapacity
	}
	if s.InboxSize <= 0 {
		s.InboxSize = DefaultInboxSize
	}
	if s.Journal.Every == 0 {
		s.Journal.Every = DefaultJournalEvery
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "text"
	}
	for i := range s.Tasks {
		if s.Tasks[i].Capacity <= 0 {
			s.Tasks[i].Capacity = DefaultTaskCapacity
		}
	}
}

// Validate checks the settings for errors a scheduler would only report
// halfway through registration.
func (s Settings) Validate() error {
	if len(s.Tasks) == 0 {
		return ErrNoTasks
	}
	if len(s.Tasks) > s.TableCapacity {
		return fmt.Errorf("%d tasks exceed table capacity %d: %w",
			len(s.Tasks), s.TableCapacity, tickloop.ErrCapacityExceeded)
	}
	seen := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task without name: %w", tickloop.ErrInvalidTask)
		}
		if seen[t.Name] {
			return fmt.Errorf("task %s: %w", t.Name, ErrDuplicateTask)
		}
		seen[t.Name] = true
		if t.Handler == "" {
			return fmt.Errorf("task %s has no handler: %w", t.Name, tickloop.ErrInvalidTask)
		}
		if t.PayloadSize < 0 {
			return fmt.Errorf("task %s: negative payload size: %w", t.Name, tickloop.ErrInvalidTask)
		}
		if t.Status != "" {
			if _, err := tickloop.ParseStatus(t.Status); err != nil {
				return fmt.Errorf("task %s: %w", t.Name, err)
			}
		}
		for _, ev := range t.Events {
			if _, err := ev.Event(); err != nil {
				return fmt.Errorf("task %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

// TaskParams returns the task's parameters as Params.
func (t TaskSpec) TaskParams() Params {
	return NewParams(t.Params)
}

// Options returns the tickloop registration options for the task.
func (t TaskSpec) Options() ([]tickloop.TaskOption, error) {
	var opts []tickloop.TaskOption
	if t.Emergency {
		opts = append(opts, tickloop.WithEmergency())
	}
	if t.Init {
		opts = append(opts, tickloop.WithInitEvent(nil))
	}
	if t.Status != "" {
		st, err := tickloop.ParseStatus(t.Status)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tickloop.WithInitialStatus(st))
	}
	return opts, nil
}

// Event converts e into a tickloop.Event.
// Ticks is the countdown for delay and timeout events and the period for
// periodic ones.
func (e EventSpec) Event() (tickloop.Event, error) {
	kind, err := tickloop.ParseKind(e.Kind)
	if err != nil {
		return tickloop.Event{}, err
	}
	var payload []byte
	if e.Payload != "" {
		payload = []byte(e.Payload)
	}
	switch kind {
	case tickloop.KindNormal:
		return tickloop.Normal(payload), nil
	case tickloop.KindInit:
		return tickloop.Init(payload), nil
	case tickloop.KindDelay:
		return tickloop.Delay(e.Ticks, payload), nil
	case tickloop.KindTimeout:
		return tickloop.Timeout(e.Ticks, payload), nil
	case tickloop.KindPeriodic:
		if e.Ticks == 0 {
			return tickloop.Event{}, fmt.Errorf("periodic event needs ticks > 0")
		}
		return tickloop.Periodic(e.Ticks, payload), nil
	}
	return tickloop.Event{}, fmt.Errorf("event kind %q cannot be configured", e.Kind)
}

// Duration is a time.Duration read from strings like "10ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(parsed)
	return nil
}
