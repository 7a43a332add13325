// Package notification implements the push dispatcher on Firebase Cloud
// Messaging.
package notification

import (
	"context"
	"log/slog"

	"dailypush/internal/domain/service"
	"dailypush/internal/errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type firebaseService struct {
	client *messaging.Client
}

// NewFirebaseService creates a new Firebase push dispatcher instance
func NewFirebaseService(ctx context.Context, credentialsPath string) (service.PushDispatcher, error) {
	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, errors.Wrap(err, "initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get messaging client")
	}

	return &firebaseService{
		client: client,
	}, nil
}

// Send pushes one notification to a single device token.
func (s *firebaseService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return errors.Wrap(err, "send notification")
	}

	return nil
}

// dryRunDispatcher logs sends instead of delivering them. It stands in for
// FCM when Firebase is not configured.
type dryRunDispatcher struct {
	logger *slog.Logger
}

// NewDryRunDispatcher creates a dispatcher that only logs.
func NewDryRunDispatcher(logger *slog.Logger) service.PushDispatcher {
	return &dryRunDispatcher{logger: logger}
}

func (d *dryRunDispatcher) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	d.logger.InfoContext(ctx, "[DryRun] push send",
		slog.String("token_prefix", prefix),
		slog.String("title", title),
		slog.Any("data", data))

	return nil
}
