package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/middleware"
)

// audit starts an audit log event for an admin action
func audit(ctx context.Context, adminID uuid.UUID, action string) *zerolog.Event {
	return log.Info().
		Str("request_id", middleware.GetRequestID(ctx)).
		Str("admin_id", adminID.String()).
		Str("action", action)
}
