package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/argument-clinic/internal/domain"
	"github.com/ashureev/argument-clinic/internal/metrics"
)

type mapLookup map[string]*Session

func (m mapLookup) Get(id string) (*Session, error) {
	if sess, ok := m[id]; ok {
		return sess, nil
	}
	return nil, ErrSessionNotFound
}

func TestCoordinator_Step(t *testing.T) {
	gen := &stubGenerator{reply: "No it isn't!"}
	sess := NewSession("s1", newTestEngine(&stubClassifier{intent: domain.IntentArgumentative}, &stubDetector{}, gen))
	coord := NewCoordinator(mapLookup{"s1": sess}, metrics.NewCollector())

	outcome, err := coord.Step(context.Background(), "s1", "That's not true!")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if outcome.Response != "No it isn't!" {
		t.Errorf("response = %q", outcome.Response)
	}
	if outcome.Node != domain.NodeSimpleContradiction {
		t.Errorf("node = %s", outcome.Node)
	}
	if outcome.Elapsed < 0 {
		t.Errorf("elapsed = %v", outcome.Elapsed)
	}
	if sess.Processing() {
		t.Error("processing flag still set after step")
	}
}

func TestCoordinator_SessionNotFound(t *testing.T) {
	coord := NewCoordinator(mapLookup{}, metrics.NewCollector())

	_, err := coord.Step(context.Background(), "missing", "hello")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Step() error = %v, want ErrSessionNotFound", err)
	}
}

func TestCoordinator_ConcurrentStepRejected(t *testing.T) {
	gen := &stubGenerator{
		reply:   "No it isn't!",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	engine := newTestEngine(&stubClassifier{intent: domain.IntentArgumentative}, &stubDetector{}, gen)
	sess := NewSession("s1", engine)
	collector := metrics.NewCollector()
	coord := NewCoordinator(mapLookup{"s1": sess}, collector)

	type stepResult struct {
		outcome *Outcome
		err     error
	}
	first := make(chan stepResult, 1)

	go func() {
		outcome, err := coord.Step(context.Background(), "s1", "That's not true!")
		first <- stepResult{outcome, err}
	}()

	// Wait for the first step to suspend inside the generator call.
	select {
	case <-gen.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first step never reached the generator")
	}

	// Second concurrent input is rejected immediately without mutation.
	_, err := coord.Step(context.Background(), "s1", "Am I being ignored?")
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("concurrent Step() error = %v, want ErrSessionBusy", err)
	}
	if engine.HistoryLength() != 1 {
		t.Errorf("history length = %d, rejection must not record input", engine.HistoryLength())
	}
	if engine.TurnCount() != 0 || engine.FrustrationLevel() != 0 {
		t.Errorf("rejection mutated counters: (%d, %d)", engine.TurnCount(), engine.FrustrationLevel())
	}

	// The original step still completes and delivers its result.
	close(gen.release)
	select {
	case res := <-first:
		if res.err != nil {
			t.Fatalf("first Step() error = %v", res.err)
		}
		if res.outcome.Response != "No it isn't!" {
			t.Errorf("first response = %q", res.outcome.Response)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first step never completed")
	}

	snap := collector.Snapshot()
	if snap.Requests.Rejected != 1 {
		t.Errorf("rejected tally = %d, want 1", snap.Requests.Rejected)
	}
	if snap.Requests.Error != 0 {
		t.Errorf("error tally = %d, rejections are not errors", snap.Requests.Error)
	}
	if snap.Requests.Success != 1 {
		t.Errorf("success tally = %d, want 1", snap.Requests.Success)
	}

	// The session is immediately usable for the next input.
	if _, err := coord.Step(context.Background(), "s1", "Another point"); err != nil {
		t.Fatalf("follow-up Step() error = %v", err)
	}
}

func TestCoordinator_FlagClearedOnFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("completion failed")}
	sess := NewSession("s1", newTestEngine(&stubClassifier{intent: domain.IntentArgumentative}, &stubDetector{}, gen))
	collector := metrics.NewCollector()
	coord := NewCoordinator(mapLookup{"s1": sess}, collector)

	_, err := coord.Step(context.Background(), "s1", "hello")
	if err == nil {
		t.Fatal("Step() expected error")
	}
	if sess.Processing() {
		t.Error("processing flag still set after failed step")
	}
	if collector.Snapshot().Requests.Error != 1 {
		t.Error("collaborator failure should be tallied as an error")
	}

	// Next input proceeds normally.
	gen.err = nil
	gen.reply = "Yes it is!"
	if _, err := coord.Step(context.Background(), "s1", "retry"); err != nil {
		t.Fatalf("follow-up Step() error = %v", err)
	}
}
