package live

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"crocsthepen/internal/gemini"
	"crocsthepen/internal/logging"
)

// Transport is the upstream live connection surface. *gemini.LiveSession
// satisfies it; tests fake it.
type Transport interface {
	SendAudio(pcm []byte, mimeType string) error
	Receive() (gemini.ServerAudio, error)
	Close() error
}

// Event is one inbound playback event delivered to the consumer.
type Event struct {
	// Samples is decoded synthesized audio, normalized float32 mono at
	// OutputSampleRate. Empty for pure control events.
	Samples []float32
	// StartAt is the playback offset assigned by the scheduler.
	StartAt time.Duration
	// Interrupted means the user talked over the model; everything queued
	// was dropped.
	Interrupted bool
	// TurnDone marks the end of a model turn.
	TurnDone bool
}

// Session pumps audio both ways over a transport until closed or the
// transport ends. Outbound microphone frames go through SendFrame; inbound
// events arrive on Events.
type Session struct {
	transport Transport
	sched     *Scheduler

	frames chan []float32
	events chan Event

	cancel    context.CancelFunc
	waitDone  chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	pumpErr error
}

// Start opens the pumps over an established transport. The returned session
// owns the transport and closes it on Close.
func Start(ctx context.Context, transport Transport) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		transport: transport,
		sched:     NewScheduler(nil),
		frames:    make(chan []float32, 8),
		events:    make(chan Event, 8),
		cancel:    cancel,
		waitDone:  make(chan struct{}),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.outbound(ctx) })
	g.Go(func() error {
		// A finished receive loop, clean or not, ends the whole session.
		defer cancel()
		return s.inbound(ctx)
	})
	go func() {
		if err := g.Wait(); err != nil {
			s.mu.Lock()
			s.pumpErr = err
			s.mu.Unlock()
			logging.Live("Live session ended with error: %v", err)
		}
		close(s.events)
		close(s.waitDone)
	}()
	return s
}

// Events is the inbound event stream. It is closed when the session ends.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Scheduler exposes the playback scheduler, for reporting how much audio is
// queued.
func (s *Session) Scheduler() *Scheduler {
	return s.sched
}

// SendFrame queues one microphone frame for upload. Returns the context
// error when the session is shutting down.
func (s *Session) SendFrame(ctx context.Context, samples []float32) error {
	select {
	case s.frames <- samples:
		return nil
	case <-s.waitDone:
		return errors.New("live session closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) outbound(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case samples := <-s.frames:
			if err := s.transport.SendAudio(EncodePCM16(samples), inputMIMEType); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (s *Session) inbound(ctx context.Context) error {
	for {
		msg, err := s.transport.Receive()
		if err != nil {
			// A receive error after Close or a clean upstream end is a
			// normal shutdown.
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var ev Event
		if msg.Interrupted {
			dropped := s.sched.Interrupt()
			logging.Live("Interrupted; dropped %d queued chunks", dropped)
			ev.Interrupted = true
		}
		ev.TurnDone = msg.TurnDone
		if len(msg.PCM) > 0 {
			ev.Samples = DecodePCM16(msg.PCM)
			ev.StartAt, _ = s.sched.Schedule(PCMDuration(len(msg.PCM), OutputSampleRate))
		}
		if len(ev.Samples) == 0 && !ev.Interrupted && !ev.TurnDone {
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close tears the session down: stops both pumps, closes the transport, and
// waits for them to exit. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.transport.Close()
		<-s.waitDone
	})
	return s.closeErr
}

// Err reports why the pumps stopped, nil on a clean shutdown.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pumpErr
}
