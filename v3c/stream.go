// Package v3c implements the chunked bitstream handoff between the GOF
// encoding pipeline and whatever consumes the finished V3C unit stream
// (a file writer, a network sink, a test harness), per spec.md §6-§7.
package v3c

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrStreamClosed is returned by Push once the stream has been closed.
var ErrStreamClosed = errors.New("v3c: stream closed")

// ChunkKind identifies what a Chunk carries.
type ChunkKind int

const (
	ChunkOccupancy ChunkKind = iota
	ChunkGeometry
	ChunkAttribute
	ChunkEnd
	ChunkError
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkOccupancy:
		return "occupancy"
	case ChunkGeometry:
		return "geometry"
	case ChunkAttribute:
		return "attribute"
	case ChunkEnd:
		return "end"
	case ChunkError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Chunk is one v3c_chunk unit: a GOF/layer-tagged slice of coded bytes,
// or (for ChunkEnd/ChunkError) a sentinel with no payload.
type Chunk struct {
	Kind     ChunkKind
	GOFIndex int
	Layer    int // 0 = L1, 1 = L2; meaningless for occupancy/end/error
	Payload  []byte
	Err      error
}

// IsSentinel reports whether this chunk carries no payload and only
// signals end-of-stream or a terminal error.
func (c Chunk) IsSentinel() bool {
	return c.Kind == ChunkEnd || c.Kind == ChunkError
}

// Stream is a mutex-guarded, semaphore-bounded producer/consumer queue
// of chunks. Producers block in Push once capacity chunks are in
// flight, giving the encoder natural backpressure against a slow
// consumer, the same role distribution's viewer fan-out plays for
// live frames.
type Stream struct {
	log *slog.Logger

	cap *semaphore.Weighted

	mu     sync.Mutex
	items  []Chunk
	closed bool
	notify chan struct{}
}

// NewStream creates a Stream that admits at most capacity chunks
// before Push blocks. If log is nil, slog.Default() is used.
func NewStream(capacity int64, log *slog.Logger) *Stream {
	if log == nil {
		log = slog.Default()
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &Stream{
		log:    log.With("component", "v3c-stream"),
		cap:    semaphore.NewWeighted(capacity),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues a chunk, blocking until capacity is available or ctx is
// cancelled. Pushing after Close returns ErrStreamClosed.
func (s *Stream) Push(ctx context.Context, c Chunk) error {
	if err := s.cap.Acquire(ctx, 1); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.cap.Release(1)
		return ErrStreamClosed
	}
	s.items = append(s.items, c)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop dequeues the next chunk in FIFO order, blocking until one is
// available, the stream is closed and drained (io.EOF-style via
// ErrStreamClosed), or ctx is cancelled.
func (s *Stream) Pop(ctx context.Context) (Chunk, error) {
	for {
		s.mu.Lock()
		if len(s.items) > 0 {
			c := s.items[0]
			s.items = s.items[1:]
			s.mu.Unlock()
			s.cap.Release(1)
			return c, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Chunk{}, ErrStreamClosed
		}

		select {
		case <-ctx.Done():
			return Chunk{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// Close marks the stream closed. Pending items already queued remain
// poppable; once drained, Pop returns ErrStreamClosed. Close is
// idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.notify)
}

// Len returns the number of chunks currently queued.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
