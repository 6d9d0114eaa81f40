package live

import (
	"sync"
	"time"
)

// Scheduler assigns playback start offsets to decoded audio chunks so they
// play back to back without gaps: each chunk starts at the later of the
// current clock reading and the end of the previously scheduled chunk. It
// also tracks which chunks are still live so an interruption can drop them
// all at once.
type Scheduler struct {
	mu        sync.Mutex
	clock     func() time.Duration
	nextStart time.Duration
	active    map[int]struct{}
	nextID    int
}

// NewScheduler creates a scheduler driven by the given monotonic playback
// clock. A nil clock uses wall time since creation.
func NewScheduler(clock func() time.Duration) *Scheduler {
	if clock == nil {
		epoch := time.Now()
		clock = func() time.Duration { return time.Since(epoch) }
	}
	return &Scheduler{clock: clock, active: make(map[int]struct{})}
}

// Schedule reserves a playback slot for a chunk of the given duration and
// returns its start offset plus a handle for Done.
func (s *Scheduler) Schedule(d time.Duration) (start time.Duration, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start = s.nextStart
	if now := s.clock(); now > start {
		start = now
	}
	s.nextStart = start + d

	s.nextID++
	id = s.nextID
	s.active[id] = struct{}{}
	return start, id
}

// Done marks a chunk as finished playing. Unknown handles are ignored.
func (s *Scheduler) Done(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Active reports how many scheduled chunks have not finished.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Interrupt drops every live chunk and resets the playback clock, so the
// next chunk starts immediately. Returns how many chunks were cut off.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.active)
	s.active = make(map[int]struct{})
	s.nextStart = 0
	return n
}
