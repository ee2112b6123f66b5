package notify

import "context"

// Event is the body posted to the failure webhook.
type Event struct {
	Event string `json:"event"`
	Type  string `json:"type"`
	Host  string `json:"host"`
	Error string `json:"error"`
	DNS   string `json:"dns_class,omitempty"`
}

type Notifier interface {
	Send(ctx context.Context, ev Event) error
}
