package notify

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNotifyOncePerSession(t *testing.T) {
	notifier := NewNotifier(zerolog.Nop())

	if !notifier.Notify(ConditionMissingAPIKey, "configure an API key") {
		t.Error("Expected the first notification to go out")
	}
	if notifier.Notify(ConditionMissingAPIKey, "configure an API key") {
		t.Error("Expected the repeat notification to be suppressed")
	}
	if !notifier.Notify(ConditionProviderDown, "provider unreachable") {
		t.Error("Expected a different condition to go out")
	}
}

func TestResetStartsNewSession(t *testing.T) {
	notifier := NewNotifier(zerolog.Nop())

	notifier.Notify(ConditionMissingAPIKey, "configure an API key")
	notifier.Reset()

	if !notifier.Notify(ConditionMissingAPIKey, "configure an API key") {
		t.Error("Expected the condition to fire again after Reset")
	}
}

func TestSubscriberReceives(t *testing.T) {
	notifier := NewNotifier(zerolog.Nop())
	ch := notifier.Subscribe(4)

	notifier.Notify(ConditionMissingAPIKey, "configure an API key")

	select {
	case got := <-ch:
		if got.Condition != ConditionMissingAPIKey || got.Message != "configure an API key" {
			t.Errorf("Unexpected notification: %+v", got)
		}
	default:
		t.Fatal("Expected a buffered notification")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	notifier := NewNotifier(zerolog.Nop())
	ch := notifier.Subscribe(1)

	// The buffer holds one; the second delivery is dropped, not blocked
	if !notifier.Notify("cond-1", "first") {
		t.Error("Expected first notification to go out")
	}
	if !notifier.Notify("cond-2", "second") {
		t.Error("Expected second notification to go out")
	}

	got := <-ch
	if got.Condition != "cond-1" {
		t.Errorf("Expected the first notification in the buffer, got %+v", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("Expected the overflow notification to be dropped, got %+v", extra)
	default:
	}
}

func TestMultipleSubscribers(t *testing.T) {
	notifier := NewNotifier(zerolog.Nop())
	chA := notifier.Subscribe(1)
	chB := notifier.Subscribe(1)

	notifier.Notify(ConditionProviderDown, "provider unreachable")

	for i, ch := range []<-chan Notification{chA, chB} {
		select {
		case got := <-ch:
			if got.Condition != ConditionProviderDown {
				t.Errorf("Subscriber %d: unexpected notification %+v", i, got)
			}
		default:
			t.Errorf("Subscriber %d: expected a notification", i)
		}
	}
}
