package ctl

import (
	"strings"

	"github.com/mitchell0000/boottrace/internal/trace"
)

// maxMessageLen bounds an administrative message: an actor label, a
// colon, and an event label. Longer bodies are rejected before parsing.
const maxMessageLen = trace.ActorNameLen + 1 + trace.EventNameLen

// ParseMessage splits an administrative message of the form
// "actor:event" at the first colon. Without a colon the whole message is
// the event label and the actor is empty, which the recorder resolves to
// the calling actor's own name.
func ParseMessage(msg string) (event, actor string) {
	if i := strings.IndexByte(msg, ':'); i >= 0 {
		return msg[i+1:], msg[:i]
	}
	return msg, ""
}
