package reqctx

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	keyRID ctxKey = "rid"
	keyUID ctxKey = "uid"
)

// WithRID stores the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithUID stores the authenticated user id.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

// UID returns the authenticated user id if present.
func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}

// Fields returns the correlation fields to attach to a log line.
func Fields(ctx context.Context) []zap.Field {
	var fs []zap.Field
	if rid := RID(ctx); rid != "" {
		fs = append(fs, zap.String("rid", rid))
	}
	if uid := UID(ctx); uid != "" {
		fs = append(fs, zap.String("uid", uid))
	}
	return fs
}
