package services

import (
	"context"
	"strings"
	"time"

	"shuttlebus/internal/domain"
)

// requireAdmin checks the actor's role against storage, not the token.
func requireAdmin(ctx context.Context, users AdminChecker, actorID, action string) error {
	if strings.TrimSpace(actorID) == "" {
		return domain.ForbiddenError{Action: action}
	}
	ok, err := users.IsAdmin(ctx, actorID)
	if err != nil {
		return domain.Internalize(err)
	}
	if !ok {
		return domain.ForbiddenError{Action: action}
	}
	return nil
}

func requireID(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", domain.ValidationError{Field: field, Msg: field + " is required"}
	}
	return v, nil
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
