package tickloop

import "fmt"

// Kind classifies an event slot.
// The loop treats every non-Empty kind the same way; the kind tells the
// handler how the event was meant to be timed.
type Kind uint8

// Event kinds.
const (
	// KindEmpty marks a free slot. The loop ignores it.
	KindEmpty Kind = iota
	// KindInit is processed once when the task starts.
	KindInit
	// KindTimeout counts down and is processed when the countdown expires.
	KindTimeout
	// KindDelay is a one-shot event held back for Countdown ticks.
	KindDelay
	// KindPeriodic re-arms to Repeat ticks each time its handler reports Done.
	KindPeriodic
	// KindNormal is processed on the next pass.
	KindNormal
)

var kindNames = [...]string{
	KindEmpty:    "empty",
	KindInit:     "init",
	KindTimeout:  "timeout",
	KindDelay:    "delay",
	KindPeriodic: "periodic",
	KindNormal:   "normal",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindEmpty, fmt.Errorf("unknown event kind %q", s)
}

// Event is the value offered for admission.
// Payload is copied into the slot's fixed-size buffer; the caller keeps
// ownership of the slice.
type Event struct {
	Kind    Kind
	Payload []byte

	// Repeat is the countdown reload applied when the handler reports Done.
	// 0 means the slot is freed instead.
	Repeat uint32

	// Countdown is the number of observed ticks before the event is eligible.
	Countdown uint32
}

// Normal returns an event eligible on the next pass.
func Normal(payload []byte) Event {
	return Event{Kind: KindNormal, Payload: payload}
}

// Init returns an initialization event eligible on the next pass.
func Init(payload []byte) Event {
	return Event{Kind: KindInit, Payload: payload}
}

// Delay returns a one-shot event eligible after ticks ticks.
func Delay(ticks uint32, payload []byte) Event {
	return Event{Kind: KindDelay, Payload: payload, Countdown: ticks}
}

// Timeout returns a one-shot event that fires once ticks ticks have elapsed.
// Cancel it with Scheduler.Delete before it fires.
func Timeout(ticks uint32, payload []byte) Event {
	return Event{Kind: KindTimeout, Payload: payload, Countdown: ticks}
}

// Periodic returns an event that fires every period ticks until deleted.
func Periodic(period uint32, payload []byte) Event {
	return Event{Kind: KindPeriodic, Payload: payload, Countdown: period, Repeat: period}
}
