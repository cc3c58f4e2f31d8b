package service

// EventPublisher broadcasts live events to a workspace's websocket
// clients. A nil publisher disables events.
type EventPublisher interface {
	Publish(workspaceID, event string, payload any)
}

// Event names broadcast to websocket clients.
const (
	EventSessionUpdated = "session.updated"
	EventRoundImported  = "round.imported"
	EventChangeResolved = "change.resolved"
)

// publishAsync sends an event if a publisher is configured.
func publishAsync(p EventPublisher, workspaceID, event string, payload any) {
	if p == nil {
		return
	}

	p.Publish(workspaceID, event, payload)
}
