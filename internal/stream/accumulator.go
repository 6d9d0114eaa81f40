// Package stream folds incremental generation fragments into one
// progressively updated message. An accumulator is owned by exactly one
// sequential consumer for the lifetime of an in-flight request; it is not
// safe for concurrent writers and is never shared across requests, which is
// what guarantees fragments apply in arrival order exactly once.
package stream

import (
	"strings"

	"crocsthepen/internal/logging"
	"crocsthepen/internal/types"
)

// Fragment is one incremental piece of a streamed generation response:
// a text delta plus any side-channel citations it carried.
type Fragment struct {
	Text      string
	Grounding []types.GroundingChunk
}

// Sink receives the updated message after every fragment and on
// finalize/fail. It is the render hook: fragments are never buffered beyond
// one sink call.
type Sink func(msg types.Message)

// Accumulator builds one assistant message from a fragment sequence.
type Accumulator struct {
	msg  types.Message
	buf  strings.Builder
	sink Sink
	done bool
}

// Begin creates the accumulator and its placeholder message: generating=true,
// empty content. The placeholder is pushed to the sink immediately so the
// session shows the in-flight turn.
func Begin(msgID string, sink Sink) *Accumulator {
	a := &Accumulator{
		msg: types.Message{
			ID:         msgID,
			Role:       types.RoleAssistant,
			Timestamp:  types.NowMillis(),
			Generating: true,
		},
		sink: sink,
	}
	a.emit()
	return a
}

// Message returns a snapshot of the current message state.
func (a *Accumulator) Message() types.Message {
	return a.msg
}

// Content returns the full accumulated text so far.
func (a *Accumulator) Content() string {
	return a.buf.String()
}

// OnFragment appends the fragment's text delta and citations, then re-renders
// through the sink. Citations accumulate in arrival order; deduplication is
// deliberately not performed. Fragments arriving after finalize are dropped.
func (a *Accumulator) OnFragment(f Fragment) {
	if a.done {
		logging.Get(logging.CategoryGateway).Warn("Fragment after finalize dropped for message %s", a.msg.ID)
		return
	}
	a.buf.WriteString(f.Text)
	a.msg.Content = a.buf.String()
	if len(f.Grounding) > 0 {
		a.msg.Grounding = append(a.msg.Grounding, f.Grounding...)
	}
	a.emit()
}

// Finalize clears the generating flag, attaches any resolved media parts, and
// freezes the content. Returns the final message.
func (a *Accumulator) Finalize(parts ...types.MessagePart) types.Message {
	if a.done {
		return a.msg
	}
	a.done = true
	a.msg.Generating = false
	a.msg.Content = a.buf.String()
	if len(parts) > 0 {
		a.msg.Parts = append(a.msg.Parts, parts...)
	}
	a.emit()
	return a.msg
}

// Fail clears the generating flag and replaces the content with a
// user-visible error string. The caller performs no debit for this turn.
func (a *Accumulator) Fail(err error) types.Message {
	if a.done {
		return a.msg
	}
	a.done = true
	a.msg.Generating = false
	a.msg.Content = "Error: " + err.Error()
	a.emit()
	return a.msg
}

func (a *Accumulator) emit() {
	if a.sink != nil {
		a.sink(a.msg)
	}
}
