package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	treeKey      contextKey = "source_tree"
	stageKey     contextKey = "stage"
)

// WithSessionID annotates context with the import session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the import session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTree annotates context with the source tree root being processed.
func WithTree(ctx context.Context, root string) context.Context {
	if root == "" {
		return ctx
	}
	return context.WithValue(ctx, treeKey, root)
}

// TreeFromContext returns the source tree root if present.
func TreeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(treeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name (scan, resolve, transfer).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
