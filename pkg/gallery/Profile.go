package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
)

/*
Profile returns the member profile of email, fetched once per session and
kept in the session cache afterwards. An unknown member yields a nil profile
and no error, so the caller treats them as a visitor.
*/
func (c *Controller) Profile(ctx context.Context, email string) (*models.Profile, error) {
	var (
		err     error
		found   bool
		profile *models.Profile
	)

	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return nil, nil
	}

	key := sessioncache.ProfileKey(email)

	if found, err = c.cache.GetJSON(ctx, key, &profile); err != nil {
		slog.Warn("ignoring unreadable cached profile", "email", email, "error", err)
	}

	if found && profile != nil {
		return profile, nil
	}

	if profile, err = c.client.GetProfile(ctx, email); err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			slog.Info("no member profile for identity", "email", email)
			return nil, nil
		}

		return nil, fmt.Errorf("error fetching profile of '%s': %w", email, err)
	}

	if err = c.cache.SetJSON(ctx, key, profile); err != nil {
		slog.Error("error caching member profile", "email", email, "error", err)
	}

	return profile, nil
}
