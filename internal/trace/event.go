package trace

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

const (
	// EventNameLen is the fixed size of a slot's event-name field.
	// Longer names are truncated, never rejected.
	EventNameLen = 40

	// ActorNameLen is the fixed size of a slot's actor-name field.
	ActorNameLen = 24
)

// Event is a single recorded trace entry.
//
// Validity contract: Cycles == 0 means the slot is empty. A reader that
// observes a zero cycle sample must treat the slot as unused and skip it,
// whether the slot was never claimed or is mid-write by a concurrent
// recorder. Recorders fill every other field first and store Cycles last.
//
// Labels are fixed-size NUL-padded byte arrays rather than strings so a
// torn concurrent read yields garbled text at worst, never a corrupt
// string header.
type Event struct {
	Cycles   uint64 // monotonic cycle-counter sample; 0 = empty slot
	Tick     int64  // coarse tick at record time
	CPU      int32  // processing unit that recorded the event
	ActorID  int32  // id of the recording actor
	CPUTime  uint32 // microseconds of user+system time accumulated by the actor
	InBlock  uint32 // input-block count
	OutBlock uint32 // output-block count
	Actor    [ActorNameLen]byte
	Name     [EventNameLen]byte
}

// Valid reports whether the slot holds a completed entry.
func (e *Event) Valid() bool {
	return e.Cycles != 0
}

// EventName returns the event label with NUL padding stripped.
func (e *Event) EventName() string {
	return decodeLabel(e.Name[:])
}

// ActorName returns the actor label with NUL padding stripped.
func (e *Event) ActorName() string {
	return decodeLabel(e.Actor[:])
}

func decodeLabel(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// putLabel normalizes s to NFC and copies it into dst, truncating at
// len(dst) bytes and NUL-padding the remainder. Normalizing first keeps
// the truncation point stable for equivalent Unicode spellings.
func putLabel(dst []byte, s string) {
	s = norm.NFC.String(s)
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}
