package services

import (
	"context"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UserDirectory mirrors identity-provider profiles and resolves display fields for feed
// items. Resolved displays are cached for the configured TTL.
type UserDirectory struct {
	users   database.UserStore
	cache   *cache.Cache
	timeout time.Duration
	metrics *Metrics
	logger  zerolog.Logger
}

func NewUserDirectory(users database.UserStore, ttl, storeTimeout time.Duration, metrics *Metrics) *UserDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserDirectory{
		users:   users,
		cache:   cache.New(ttl, 2*ttl),
		timeout: storeTimeout,
		metrics: metrics,
		logger:  log.With().Str("service", "userDirectory").Logger(),
	}
}

// Upsert stores the caller's profile and refreshes its cached display.
func (d *UserDirectory) Upsert(ctx context.Context, user models.User) (*models.User, error) {
	user.ID = strings.TrimSpace(user.ID)
	if err := required("userId", user.ID); err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(user.Name)

	ctx, cancel := storeCtx(ctx, d.timeout)
	defer cancel()

	if err := d.users.Upsert(ctx, &user); err != nil {
		return nil, storeError(d.metrics, "upsert", "user", err)
	}
	d.cache.Set(user.ID, user.Display(), cache.DefaultExpiration)
	return &user, nil
}

func (d *UserDirectory) Get(ctx context.Context, id string) (*models.User, error) {
	if err := required("userId", id); err != nil {
		return nil, err
	}

	ctx, cancel := storeCtx(ctx, d.timeout)
	defer cancel()

	user, err := d.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(d.metrics, "find", "user", err)
	}
	return user, nil
}

// Resolve returns the display record of every known id. Unknown ids are absent from the
// map. A store failure is logged and yields whatever the cache already held, so listings
// still render without author blocks.
func (d *UserDirectory) Resolve(ctx context.Context, ids []string) map[string]*models.UserDisplay {
	displays := make(map[string]*models.UserDisplay, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if cached, ok := d.cache.Get(id); ok {
			displays[id] = cached.(*models.UserDisplay)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return displays
	}

	ctx, cancel := storeCtx(ctx, d.timeout)
	defer cancel()

	users, err := d.users.FindByIDs(ctx, missing)
	if err != nil {
		d.logger.Warn().Err(err).Int("ids", len(missing)).Msg("Failed to resolve user displays")
		return displays
	}
	for _, u := range users {
		display := u.Display()
		d.cache.Set(u.ID, display, cache.DefaultExpiration)
		displays[u.ID] = display
	}
	return displays
}
