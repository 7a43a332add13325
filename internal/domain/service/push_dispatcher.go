package service

import "context"

// PushDispatcher sends one notification to one device token. A nil return
// means the transport accepted the message; any error is an opaque dispatch
// failure to the scheduling core, which counts it and releases the claim.
type PushDispatcher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
