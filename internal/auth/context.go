package auth

import (
	"context"

	"tabletap/internal/model"
)

type sessionKey struct{}
type staffKey struct{}

// WithSession stores the browser session id on the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionID returns the browser session id, or "" outside the session
// middleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithStaff stores the resolved staff session on the context.
func WithStaff(ctx context.Context, sess *model.StaffSession) context.Context {
	return context.WithValue(ctx, staffKey{}, sess)
}

// StaffFromContext returns the staff session placed by RequireStaff.
func StaffFromContext(ctx context.Context) (*model.StaffSession, bool) {
	sess, ok := ctx.Value(staffKey{}).(*model.StaffSession)
	return sess, ok && sess != nil
}

// StaffToken returns the bearer token of the authenticated staff member, or
// "" when none is present.
func StaffToken(ctx context.Context) string {
	sess, ok := StaffFromContext(ctx)
	if !ok {
		return ""
	}
	return sess.Token
}

// RestaurantID returns the restaurant the authenticated staff member belongs
// to, or "" when none is present.
func RestaurantID(ctx context.Context) string {
	sess, ok := StaffFromContext(ctx)
	if !ok {
		return ""
	}
	return sess.User.RestaurantID
}

// CanManageMenu reports whether the staff role may edit menu and tables.
func CanManageMenu(ctx context.Context) bool {
	sess, ok := StaffFromContext(ctx)
	if !ok {
		return false
	}
	return sess.User.Role == model.RoleAdmin || sess.User.Role == model.RoleManager
}
