package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/test-session/internal/events"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/services"
)

// A rejected token is forwarded to the broker so other services can sign
// the user out as well.
func ExampleSessionEventService_Notify() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	svc := services.NewSessionEventService(repositories.NewMemorySessionRecords(), publisher, logger)

	login := "/login"
	svc.Notify(context.Background(), models.Notification{
		Type:      models.NotificationTokenInvalid,
		ActionURL: &login,
	})

	for _, e := range publisher.GetPublishedEvents() {
		fmt.Println(e.Type, e.Data.(events.AuthInvalidatedEvent).RedirectTo)
	}
	// Output: auth.invalidated /login
}
