// Package notify delivers fire-and-forget user alerts, deduplicated per
// session and condition.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Conditions deduplicated within a session.
const (
	ConditionMissingAPIKey = "missing-api-key"
	ConditionProviderDown  = "provider-down"
)

// Notification is one user-visible alert.
type Notification struct {
	Condition string `json:"condition"`
	Message   string `json:"message"`
}

// Notifier shows each condition at most once per session. Subscribers
// receive deliveries over buffered channels; a slow subscriber misses
// notifications instead of blocking delivery.
type Notifier struct {
	mu          sync.Mutex
	shown       map[string]bool
	subscribers []chan Notification
	logger      zerolog.Logger
}

// NewNotifier creates a notifier with a fresh session.
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		shown:  make(map[string]bool),
		logger: logger,
	}
}

// Subscribe registers a delivery channel with the given buffer size.
func (n *Notifier) Subscribe(buffer int) <-chan Notification {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Notification, buffer)

	n.mu.Lock()
	n.subscribers = append(n.subscribers, ch)
	n.mu.Unlock()

	return ch
}

// Notify delivers the message for condition unless the condition was
// already shown this session. It reports whether the notification went
// out.
func (n *Notifier) Notify(condition, message string) bool {
	n.mu.Lock()
	if n.shown[condition] {
		n.mu.Unlock()
		return false
	}
	n.shown[condition] = true
	subscribers := append([]chan Notification(nil), n.subscribers...)
	n.mu.Unlock()

	n.logger.Info().Str("condition", condition).Msg(message)

	notification := Notification{Condition: condition, Message: message}
	for _, ch := range subscribers {
		select {
		case ch <- notification:
		default:
		}
	}
	return true
}

// Reset starts a new session: every condition may be shown again.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = make(map[string]bool)
}
