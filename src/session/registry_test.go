package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/visualmix/resolume/src/types"
)

// fakeSender records commands and simulates connection state.
type fakeSender struct {
	mu        sync.Mutex
	sent      []types.Command
	connected bool
	sendErr   error
}

func (f *fakeSender) Send(_ context.Context, cmd types.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSender) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func TestSubscribeWhileConnectedSendsCommand(t *testing.T) {
	sender := &fakeSender{connected: true}
	r := NewRegistry(sender, zerolog.Nop())

	if err := r.Subscribe(context.Background(), 42); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if !r.Contains(42) {
		t.Error("expected 42 in the registry")
	}
	if len(sender.sent) != 1 || sender.sent[0].Action != types.ActionSubscribe {
		t.Fatalf("expected one subscribe command, got %v", sender.sent)
	}
	if sender.sent[0].Parameter != types.ParameterPath(42) {
		t.Errorf("unexpected parameter path %q", sender.sent[0].Parameter)
	}
}

func TestSubscribeWhileDisconnectedRecordsIntentOnly(t *testing.T) {
	sender := &fakeSender{connected: false}
	r := NewRegistry(sender, zerolog.Nop())

	if err := r.Subscribe(context.Background(), 42); err != nil {
		t.Fatalf("subscribe should succeed offline: %v", err)
	}

	if !r.Contains(42) {
		t.Error("intent must be recorded while disconnected")
	}
	if len(sender.sent) != 0 {
		t.Errorf("no command should be sent while disconnected, got %v", sender.sent)
	}
}

func TestSubscribeRecordsIntentBeforeFailedSend(t *testing.T) {
	sender := &fakeSender{connected: true, sendErr: errors.New("write failed")}
	r := NewRegistry(sender, zerolog.Nop())

	if err := r.Subscribe(context.Background(), 7); err == nil {
		t.Fatal("expected the send error to surface")
	}
	if !r.Contains(7) {
		t.Error("a failed send must not lose the caller's intent")
	}
}

func TestUnsubscribeRemovesEvenWhenSendFails(t *testing.T) {
	sender := &fakeSender{connected: true}
	r := NewRegistry(sender, zerolog.Nop())
	_ = r.Subscribe(context.Background(), 9)

	sender.mu.Lock()
	sender.sendErr = errors.New("write failed")
	sender.mu.Unlock()

	_ = r.Unsubscribe(context.Background(), 9)
	if r.Contains(9) {
		t.Error("unsubscribe must remove the id regardless of send success")
	}
}

func TestRegistryMembershipEqualsSubscribedMinusUnsubscribed(t *testing.T) {
	sender := &fakeSender{connected: true}
	r := NewRegistry(sender, zerolog.Nop())
	ctx := context.Background()

	for _, id := range []int{1, 2, 3, 4, 5, 3, 2} {
		_ = r.Subscribe(ctx, id)
	}
	for _, id := range []int{2, 4, 6} {
		_ = r.Unsubscribe(ctx, id)
	}

	got := r.IDs()
	sort.Ints(got)
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDuplicateSubscribeIsSafe(t *testing.T) {
	sender := &fakeSender{connected: true}
	r := NewRegistry(sender, zerolog.Nop())
	ctx := context.Background()

	_ = r.Subscribe(ctx, 11)
	_ = r.Subscribe(ctx, 11)

	if got := len(r.IDs()); got != 1 {
		t.Fatalf("expected a set, got %d entries", got)
	}
}
