package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	sheetKey     contextKey = "sheet"
)

// WithRequestID adds a gateway request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSheet adds the name of the sheet under review to the context.
func WithSheet(ctx context.Context, sheet string) context.Context {
	return context.WithValue(ctx, sheetKey, sheet)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetSheet retrieves the sheet name from the context.
// Returns empty string if not present.
func GetSheet(ctx context.Context) string {
	if s, ok := ctx.Value(sheetKey).(string); ok {
		return s
	}
	return ""
}
