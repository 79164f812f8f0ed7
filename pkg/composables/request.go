package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/campus-sdk/pkg/constants"
	"github.com/iota-uz/campus-sdk/pkg/logging"
)

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, or a no-op logger outside a request.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && logger != nil {
		return logger
	}
	return logging.Nop()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, requestID)
}

func UseRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(constants.RequestIDKey).(string)
	return id, ok && id != ""
}
