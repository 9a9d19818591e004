package v3c

import (
	"context"
	"testing"
	"time"
)

func TestStreamPushPopFIFO(t *testing.T) {
	t.Parallel()
	s := NewStream(4, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Push(ctx, Chunk{Kind: ChunkGeometry, GOFIndex: i}); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		c, err := s.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop(%d): %v", i, err)
		}
		if c.GOFIndex != i {
			t.Fatalf("Pop(%d) = GOFIndex %d, want %d", i, c.GOFIndex, i)
		}
	}
}

func TestStreamPushBlocksAtCapacity(t *testing.T) {
	t.Parallel()
	s := NewStream(1, nil)
	ctx := context.Background()

	if err := s.Push(ctx, Chunk{Kind: ChunkOccupancy}); err != nil {
		t.Fatalf("first Push: %v", err)
	}

	pushCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := s.Push(pushCtx, Chunk{Kind: ChunkOccupancy}); err == nil {
		t.Fatal("expected second Push to block and time out at capacity 1")
	}

	if _, err := s.Pop(ctx); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if err := s.Push(ctx, Chunk{Kind: ChunkOccupancy}); err != nil {
		t.Fatalf("Push after drain: %v", err)
	}
}

func TestStreamCloseDrainsThenReturnsClosedError(t *testing.T) {
	t.Parallel()
	s := NewStream(4, nil)
	ctx := context.Background()

	if err := s.Push(ctx, Chunk{Kind: ChunkEnd}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	s.Close()

	c, err := s.Pop(ctx)
	if err != nil {
		t.Fatalf("Pop of queued item after Close: %v", err)
	}
	if c.Kind != ChunkEnd {
		t.Fatalf("Kind = %v, want ChunkEnd", c.Kind)
	}

	if _, err := s.Pop(ctx); err != ErrStreamClosed {
		t.Fatalf("Pop after drain = %v, want ErrStreamClosed", err)
	}
}

func TestStreamPushAfterCloseFails(t *testing.T) {
	t.Parallel()
	s := NewStream(4, nil)
	s.Close()
	if err := s.Push(context.Background(), Chunk{Kind: ChunkGeometry}); err != ErrStreamClosed {
		t.Fatalf("Push after Close = %v, want ErrStreamClosed", err)
	}
}

func TestStreamPopRespectsContextCancellation(t *testing.T) {
	t.Parallel()
	s := NewStream(4, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := s.Pop(ctx); err == nil {
		t.Fatal("expected Pop on empty, open stream to time out")
	}
}
