package middleware

import "context"

type contextKey string

// SubjectKey is the context key for the authenticated JWT subject
const SubjectKey contextKey = "subject"

// GetSubjectFromContext extracts the authenticated subject from the context
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(SubjectKey).(string)
	return sub, ok
}

// WithSubject returns a new context carrying the authenticated subject
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectKey, subject)
}
