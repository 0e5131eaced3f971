package domain

import (
	"testing"
	"time"
)

func testTrack(title string) Track {
	return NewTrack("https://media.example/"+title, title, 3*time.Minute)
}

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue()

	titles := []string{"a", "b", "c", "d"}
	for i, title := range titles {
		if pos := q.Enqueue(testTrack(title)); pos != i {
			t.Errorf("Enqueue(%q) position = %d, want %d", title, pos, i)
		}
	}

	if q.Head() == nil || q.Head().Title != "a" {
		t.Fatalf("expected head %q, got %v", "a", q.Head())
	}

	// Advance returns the remaining titles in exact enqueue order
	for _, want := range []string{"b", "c", "d"} {
		next := q.Advance()
		if next == nil || next.Title != want {
			t.Fatalf("Advance() = %v, want %q", next, want)
		}
	}

	if next := q.Advance(); next != nil {
		t.Errorf("Advance() past end = %v, want nil", next)
	}
	if !q.IsEmpty() {
		t.Error("expected queue to be empty")
	}
}

func TestQueue_AdvanceOnEmpty(t *testing.T) {
	q := NewQueue()

	if got := q.Advance(); got != nil {
		t.Errorf("Advance() on empty queue = %v, want nil", got)
	}
	if got := q.Head(); got != nil {
		t.Errorf("Head() on empty queue = %v, want nil", got)
	}
}

func TestQueue_Upcoming(t *testing.T) {
	q := NewQueue()

	if got := q.Upcoming(); got != nil {
		t.Errorf("Upcoming() on empty queue = %v, want nil", got)
	}

	q.Enqueue(testTrack("current"))
	if got := q.Upcoming(); got != nil {
		t.Errorf("Upcoming() with only head = %v, want nil", got)
	}

	q.Enqueue(testTrack("next"))
	q.Enqueue(testTrack("later"))

	upcoming := q.Upcoming()
	if len(upcoming) != 2 || upcoming[0].Title != "next" || upcoming[1].Title != "later" {
		t.Errorf("Upcoming() = %v, want [next later]", upcoming)
	}
}

func TestQueue_ClearUpcoming(t *testing.T) {
	q := NewQueue()

	if got := q.ClearUpcoming(); got != 0 {
		t.Errorf("ClearUpcoming() on empty queue = %d, want 0", got)
	}

	q.Enqueue(testTrack("current"))
	q.Enqueue(testTrack("next"))
	q.Enqueue(testTrack("later"))

	if got := q.ClearUpcoming(); got != 2 {
		t.Errorf("ClearUpcoming() = %d, want 2", got)
	}
	if q.Len() != 1 {
		t.Errorf("Len() after ClearUpcoming = %d, want 1", q.Len())
	}
	if q.Head() == nil || q.Head().Title != "current" {
		t.Error("rendering slot must survive ClearUpcoming")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testTrack("a"))
	q.Enqueue(testTrack("b"))

	q.Clear()

	if !q.IsEmpty() {
		t.Error("expected queue to be empty after Clear")
	}
}

func TestQueue_ListReturnsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testTrack("a"))

	list := q.List()
	list[0] = testTrack("mutated")

	if q.Head().Title != "a" {
		t.Error("List() must return a copy")
	}
}
