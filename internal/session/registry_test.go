package session

import (
	"errors"
	"testing"
	"time"

	"github.com/ashureev/argument-clinic/internal/clinic"
)

func testFactory(id string) *clinic.Session {
	return clinic.NewSession(id, clinic.NewEngine(id, nil, nil, nil))
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(time.Minute, testFactory, nil)

	sess := r.Create()
	if sess.ID == "" {
		t.Fatal("Create() returned session without id")
	}

	got, err := r.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != sess {
		t.Errorf("Get() = %p, want %p", got, sess)
	}
	if r.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1", r.ActiveCount())
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(time.Minute, testFactory, nil)

	_, err := r.Get("nope")
	if !errors.Is(err, clinic.ErrSessionNotFound) {
		t.Fatalf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistry_Expiry(t *testing.T) {
	r := NewRegistry(50*time.Millisecond, testFactory, nil)

	sess := r.Create()
	time.Sleep(150 * time.Millisecond)

	if _, err := r.Get(sess.ID); !errors.Is(err, clinic.ErrSessionNotFound) {
		t.Fatalf("expired session still resolvable, err = %v", err)
	}
	if r.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", r.ActiveCount())
	}
}

func TestRegistry_TouchRestartsCountdown(t *testing.T) {
	r := NewRegistry(100*time.Millisecond, testFactory, nil)

	sess := r.Create()

	// Keep touching past the original deadline.
	for i := 0; i < 4; i++ {
		time.Sleep(60 * time.Millisecond)
		r.Touch(sess.ID)
	}

	if _, err := r.Get(sess.ID); err != nil {
		t.Fatalf("touched session expired: %v", err)
	}

	// Stop touching; the debounced timer now fires.
	time.Sleep(250 * time.Millisecond)
	if _, err := r.Get(sess.ID); !errors.Is(err, clinic.ErrSessionNotFound) {
		t.Fatalf("session survived without touches, err = %v", err)
	}
}

func TestRegistry_TouchWinsRaceAgainstFiredTimer(t *testing.T) {
	r := NewRegistry(50*time.Millisecond, testFactory, nil)
	sess := r.Create()

	// Hold the lock past the deadline so the fired timer's expire blocks,
	// then reschedule the countdown the way Touch does before releasing.
	r.mu.Lock()
	time.Sleep(120 * time.Millisecond)
	e := r.entries[sess.ID]
	e.timer.Stop()
	id := sess.ID
	e.timer = time.AfterFunc(r.timeout, func() { r.expire(id) })
	e.lastActivity = time.Now()
	r.mu.Unlock()

	// The stale expire now runs; it must not delete the touched session.
	time.Sleep(20 * time.Millisecond)
	if _, err := r.Get(sess.ID); err != nil {
		t.Fatalf("session deleted by a stale timer after touch: %v", err)
	}

	// The rescheduled countdown still works.
	time.Sleep(150 * time.Millisecond)
	if _, err := r.Get(sess.ID); !errors.Is(err, clinic.ErrSessionNotFound) {
		t.Fatalf("session survived the rescheduled countdown, err = %v", err)
	}
}

func TestRegistry_LastActivity(t *testing.T) {
	r := NewRegistry(time.Minute, testFactory, nil)
	sess := r.Create()

	first, ok := r.LastActivity(sess.ID)
	if !ok {
		t.Fatal("LastActivity() not found for live session")
	}

	time.Sleep(10 * time.Millisecond)
	r.Touch(sess.ID)

	second, ok := r.LastActivity(sess.ID)
	if !ok {
		t.Fatal("LastActivity() not found after touch")
	}
	if !second.After(first) {
		t.Errorf("LastActivity() = %v, want later than %v", second, first)
	}

	if _, ok := r.LastActivity("missing"); ok {
		t.Error("LastActivity() reported an unknown session")
	}
}

func TestRegistry_TouchMissingIsNoop(t *testing.T) {
	r := NewRegistry(time.Minute, testFactory, nil)
	r.Touch("gone") // must not panic
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := NewRegistry(time.Minute, testFactory, nil)

	sess := r.Create()
	r.Remove(sess.ID)
	r.Remove(sess.ID)

	if _, err := r.Get(sess.ID); !errors.Is(err, clinic.ErrSessionNotFound) {
		t.Fatalf("removed session still resolvable, err = %v", err)
	}
	if r.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", r.ActiveCount())
	}
}

func TestRegistry_ExpiryCallback(t *testing.T) {
	expired := make(chan string, 1)
	r := NewRegistry(50*time.Millisecond, testFactory, func(sess *clinic.Session) {
		expired <- sess.ID
	})

	sess := r.Create()

	select {
	case id := <-expired:
		if id != sess.ID {
			t.Errorf("expiry callback id = %s, want %s", id, sess.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("expiry callback never fired")
	}
}

func TestRegistry_RemoveCancelsExpiry(t *testing.T) {
	expired := make(chan string, 1)
	r := NewRegistry(50*time.Millisecond, testFactory, func(sess *clinic.Session) {
		expired <- sess.ID
	})

	sess := r.Create()
	r.Remove(sess.ID)

	select {
	case <-expired:
		t.Fatal("expiry callback fired after explicit remove")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(time.Minute, testFactory, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			sess := r.Create()
			r.Touch(sess.ID)
			r.Remove(sess.ID)
		}
	}()

	for i := 0; i < 200; i++ {
		r.ActiveCount()
	}
	<-done
}
