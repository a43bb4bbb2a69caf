package framework

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/okkyok/Fibit2Obsidian/pkg/bootstrap"
	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/sentry"
)

// FrameworkContext contains dependencies injected by the framework.
type FrameworkContext struct {
	Service      *bootstrap.Service
	Logger       *slog.Logger
	InvocationID string
}

// HandlerFunc is the signature for an invocation handler.
type HandlerFunc func(ctx context.Context, fwCtx *FrameworkContext) (interface{}, error)

// WrapInvocation wraps a handler with invocation logging and error capture.
// Both the HTTP and the scheduler trigger funnel through this.
func WrapInvocation(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context) (interface{}, error) {
	return func(ctx context.Context) (interface{}, error) {
		invocationID := uuid.NewString()
		logger := bootstrap.NewLogger(serviceName).With("invocation_id", invocationID)

		logger.Info("Invocation started")

		fwCtx := &FrameworkContext{
			Service:      svc,
			Logger:       logger,
			InvocationID: invocationID,
		}

		outputs, err := handler(ctx, fwCtx)
		if err != nil {
			logger.Error("Invocation failed", "error", err)
			sentry.CaptureException(err, map[string]interface{}{
				"invocation_id": invocationID,
				"service":       serviceName,
			}, logger)
			sentry.Flush(2 * time.Second)
			return outputs, err
		}

		logger.Info("Invocation completed successfully")
		return outputs, nil
	}
}
