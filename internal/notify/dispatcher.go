package notify

import (
	"fmt"
	"log/slog"

	"github.com/pjhalloran/questkeep/internal/model"
	"github.com/pjhalloran/questkeep/internal/push"
	"github.com/pjhalloran/questkeep/internal/store"
	"github.com/pjhalloran/questkeep/internal/websocket"
)

// Dispatcher fans engine events out to the WebSocket hub and, for the events
// a family member would want on a lock screen, to their push subscriptions.
type Dispatcher struct {
	hub    *websocket.Hub
	push   *push.Service
	subs   *store.PushStore
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. The push service may be nil when VAPID
// keys are not configured; events then reach WebSocket clients only.
func NewDispatcher(hub *websocket.Hub, pushSvc *push.Service, subs *store.PushStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, push: pushSvc, subs: subs, logger: logger}
}

// Sink returns a Sink that dispatches through this Dispatcher.
func (d *Dispatcher) Sink() Sink {
	return d.Dispatch
}

// Dispatch broadcasts the event to WebSocket clients and sends any push
// notifications it maps to. Push delivery runs in the background.
func (d *Dispatcher) Dispatch(e Event) {
	d.hub.Broadcast(websocket.Message{Type: e.Type, ChildID: e.ChildID, Data: e.Data})

	if d.push == nil {
		return
	}

	payload, toParents, ok := payloadFor(e)
	if !ok {
		return
	}

	go d.deliver(e, payload, toParents)
}

// payloadFor maps an event to a push payload and its audience. toParents is
// true when the notification goes to parent devices rather than the child's
// own; ok is false for events that never generate a push.
func payloadFor(e Event) (payload push.Payload, toParents, ok bool) {
	switch e.Type {
	case TypeTaskSubmitted:
		if pending, _ := e.Data["pending_review"].(bool); !pending {
			return push.Payload{}, false, false
		}
		return push.Payload{
			Title: "Quest ready for review",
			Body:  "A completed quest is waiting for your approval.",
			URL:   "/review",
			Tag:   "task-review",
		}, true, true
	case TypeTaskDenied:
		return push.Payload{
			Title: "Quest needs another try",
			Body:  feedbackBody(e.Data),
			URL:   "/quests",
			Tag:   "task-denied",
		}, false, true
	case TypeLeveledUp:
		level, _ := e.Data["new_level"].(int)
		return push.Payload{
			Title: "Level up!",
			Body:  fmt.Sprintf("You reached level %d.", level),
			URL:   "/profile",
			Tag:   "level-up",
		}, false, true
	case TypeClaimCreated:
		return push.Payload{
			Title: "Reward claimed",
			Body:  "A reward claim is waiting for your approval.",
			URL:   "/rewards",
			Tag:   "claim-review",
		}, true, true
	case TypeRewardClaimResolved:
		approved, _ := e.Data["approved"].(bool)
		body := "Your reward claim was approved. Enjoy!"
		if !approved {
			body = "Your reward claim was denied and the XP refunded."
		}
		return push.Payload{
			Title: "Reward claim resolved",
			Body:  body,
			URL:   "/rewards",
			Tag:   "claim-resolved",
		}, false, true
	default:
		return push.Payload{}, false, false
	}
}

func feedbackBody(data map[string]any) string {
	if fb, _ := data["feedback"].(string); fb != "" {
		return fb
	}
	return "A parent asked you to redo a quest."
}

func (d *Dispatcher) deliver(e Event, payload push.Payload, toParents bool) {
	var (
		subs []model.PushSubscription
		err  error
	)
	if toParents {
		subs, err = d.subs.ListParents()
	} else {
		subs, err = d.subs.ListByAccount(e.ChildID)
	}
	if err != nil {
		d.logger.Error("list push subscriptions", "event", e.Type, "error", err)
		return
	}

	for _, sub := range subs {
		if err := d.push.Send(&sub, payload); err != nil {
			if err == push.ErrExpired {
				if delErr := d.subs.DeleteByEndpoint(sub.Endpoint); delErr != nil {
					d.logger.Error("prune expired subscription", "error", delErr)
				}
				continue
			}
			d.logger.Warn("send push", "event", e.Type, "endpoint", sub.Endpoint, "error", err)
		}
	}
}
