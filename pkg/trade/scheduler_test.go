package trade

import (
	"fmt"
	"testing"
	"time"
)

func TestScheduler_DelayBounds(t *testing.T) {
	s := NewScheduler(DefaultSettleMin, DefaultSettleMax)
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("ord_%04d", i)
		d := s.Delay(id)
		if d < DefaultSettleMin || d >= DefaultSettleMax {
			t.Fatalf("Delay(%s) = %v outside [%v, %v)", id, d, DefaultSettleMin, DefaultSettleMax)
		}
		if d%time.Millisecond != 0 {
			t.Fatalf("Delay(%s) = %v not whole milliseconds", id, d)
		}
		if d != s.Delay(id) {
			t.Fatalf("Delay(%s) not deterministic", id)
		}
	}
}

func TestScheduler_FixedDelayWhenBoundsEqual(t *testing.T) {
	s := NewScheduler(time.Second, time.Second)
	if d := s.Delay("ord_x"); d != time.Second {
		t.Errorf("Delay = %v, want 1s", d)
	}
}

func TestScheduler_PopDueOrder(t *testing.T) {
	s := NewScheduler(time.Second, time.Second)
	s.Schedule("c", t0.Add(2*time.Second))
	s.Schedule("a", t0)
	s.Schedule("b", t0) // same fire time as a, queued later

	if got := s.Schedule("a", t0.Add(time.Hour)); !got.Equal(t0.Add(time.Second)) {
		t.Errorf("re-scheduling moved the entry to %v", got)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	if _, ok := s.PopDue(t0); ok {
		t.Fatal("nothing is due at t0")
	}

	var got []string
	for {
		id, ok := s.PopDue(t0.Add(5 * time.Second))
		if !ok {
			break
		}
		got = append(got, id)
	}
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("PopDue order = %v, want %v", got, want)
	}
	if _, ok := s.Next(); ok {
		t.Error("queue should be empty")
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler(time.Second, 10*time.Second)
	for _, id := range []string{"x", "y", "z"} {
		s.Schedule(id, t0)
	}
	if !s.Cancel("y") {
		t.Fatal("Cancel(y) = false")
	}
	if s.Cancel("y") {
		t.Error("second Cancel(y) = true")
	}
	if _, ok := s.FireAt("y"); ok {
		t.Error("canceled entry still has a fire time")
	}

	var got []string
	for {
		id, ok := s.PopDue(t0.Add(time.Minute))
		if !ok {
			break
		}
		got = append(got, id)
	}
	for _, id := range got {
		if id == "y" {
			t.Fatal("canceled entry fired")
		}
	}
	if len(got) != 2 {
		t.Errorf("fired %v, want x and z", got)
	}
}

func TestScheduler_WakeCoalesces(t *testing.T) {
	s := NewScheduler(time.Second, time.Second)
	s.Schedule("a", t0)
	s.Schedule("b", t0)
	s.Cancel("a")

	select {
	case <-s.Wake():
	default:
		t.Fatal("no wake signal after scheduling")
	}
	select {
	case <-s.Wake():
		t.Fatal("wake signals should coalesce")
	default:
	}
}
