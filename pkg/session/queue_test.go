package session

import (
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue(NewMessage(TypeRoundStart, "coordinator", "first", 1))
	q.Enqueue(NewMessage(TypeRoundStart, "coordinator", "second", 1))
	q.Enqueue(NewMessage(TypeRoundStart, "coordinator", "third", 1))

	for _, want := range []string{"first", "second", "third"} {
		m, ok := q.Dequeue()
		if !ok {
			t.Fatal("Dequeue() reported closed on open queue")
		}
		if m.Content != want {
			t.Errorf("Dequeue() content = %q, want %q", m.Content, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after draining", q.Len())
	}
}

func TestQueue_BlockingDequeue(t *testing.T) {
	q := NewQueue()
	got := make(chan Message, 1)
	go func() {
		m, _ := q.Dequeue()
		got <- m
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(NewMessage(TypeError, "coordinator", "wake up", 0))

	select {
	case m := <-got:
		if m.Content != "wake up" {
			t.Errorf("content = %q", m.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake on Enqueue")
	}
}

func TestQueue_CloseDrains(t *testing.T) {
	q := NewQueue()
	q.Enqueue(NewMessage(TypeGameEnd, "coordinator", "leftover", 3))
	q.Close()

	if m, ok := q.Dequeue(); !ok || m.Content != "leftover" {
		t.Errorf("Dequeue() = %+v, %v; want leftover message", m, ok)
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue() on closed empty queue should report done")
	}
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	q := NewQueue()
	q.Close()
	if q.Enqueue(NewMessage(TypeError, "x", "late", 0)) {
		t.Error("Enqueue after Close should report false")
	}
}

func TestQueue_CloseUnblocksConsumers(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})
	go func() {
		_, ok := q.Dequeue()
		if ok {
			t.Error("Dequeue() should report done")
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Dequeue")
	}
}
