package service

import (
	"time"

	"github.com/duke-git/lancet/v2/eventbus"
)

const TopicPageUpdate = "page.update"

// PageEvent describes one update attempt against the configured page.
type PageEvent struct {
	RequestID string    `json:"requestId"`
	Header    string    `json:"header"`
	Success   bool      `json:"success"`
	Time      time.Time `json:"time"`
}

// Events fans page events out to in-process subscribers.
type Events struct {
	bus *eventbus.EventBus[PageEvent]
}

func NewEvents() *Events {
	return &Events{bus: eventbus.NewEventBus[PageEvent]()}
}

func (e *Events) PublishPageEvent(ev PageEvent) {
	if e == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	e.bus.Publish(eventbus.Event[PageEvent]{Topic: TopicPageUpdate, Payload: ev})
}

// SubscribePageEvents registers handler synchronously; handlers must not block.
func (e *Events) SubscribePageEvents(handler func(ev PageEvent)) {
	e.bus.Subscribe(TopicPageUpdate, handler, false, 0, nil)
}
