package gallery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
)

/*
View is a paintable snapshot of one listing. FromCache is true while the
items come from the session cache and no fetch has confirmed them yet.
*/
type View[T any] struct {
	Items     []T
	Loading   bool
	Loaded    bool
	FromCache bool
	Err       error
}

type listing[T any] struct {
	view    View[T]
	version uint64
	cancel  context.CancelFunc
}

func (l *listing[T]) snapshot() View[T] {
	result := l.view
	result.Items = append([]T{}, l.view.Items...)
	return result
}

/*
supersede invalidates any fetch still in flight for this listing. It is
called under c.mu after a local patch, which is newer than anything that
fetch could return.
*/
func (l *listing[T]) supersede() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	l.version++
	l.view.Loading = !l.view.Loaded
}

func (c *Controller) Groups() View[models.Group] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.groups.snapshot()
}

func (c *Controller) Albums(group string) View[models.Album] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.albumListing(group).snapshot()
}

func (c *Controller) Photos(group, album string) View[models.Photo] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.photoListing(group, album).snapshot()
}

/*
LoadGroups paints the cached group list, if any, and starts a fetch that
supersedes any group fetch still in flight.
*/
func (c *Controller) LoadGroups(ctx context.Context) *Task {
	return load(ctx, c, c.groups, sessioncache.GroupsKey, c.client.ListGroups)
}

func (c *Controller) LoadAlbums(ctx context.Context, group string) *Task {
	c.mu.Lock()
	l := c.albumListing(group)
	c.mu.Unlock()

	return load(ctx, c, l, sessioncache.AlbumsKey(group), func(ctx context.Context) ([]models.Album, error) {
		return c.client.ListAlbums(ctx, group)
	})
}

func (c *Controller) LoadPhotos(ctx context.Context, group, album string) *Task {
	c.mu.Lock()
	l := c.photoListing(group, album)
	c.mu.Unlock()

	return load(ctx, c, l, sessioncache.PhotosKey(group, album), func(ctx context.Context) ([]models.Photo, error) {
		return c.client.ListPhotos(ctx, group, album)
	})
}

/*
load runs the stale-while-revalidate cycle for one listing scope. Only the
fetch holding the latest version may commit; older completions are discarded
even when their cancellation did not reach the network layer in time.
*/
func load[T any](ctx context.Context, c *Controller, l *listing[T], cacheKey string, fetch func(context.Context) ([]T, error)) *Task {
	var (
		cached []T
		found  bool
		err    error
	)

	c.mu.Lock()
	painted := l.view.Loaded
	c.mu.Unlock()

	if !painted {
		if found, err = c.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			slog.Warn("ignoring unreadable session cache entry", "key", cacheKey, "error", err)
		}
	}

	fetchCtx, cancel := context.WithCancel(c.baseCtx)
	stopPropagation := context.AfterFunc(ctx, cancel)
	task := newTask(cancel)

	c.mu.Lock()

	if !l.view.Loaded && found {
		l.view.Items = cached
		l.view.Loaded = true
		l.view.FromCache = true
	}

	l.view.Loading = !l.view.Loaded

	if l.cancel != nil {
		l.cancel()
	}

	l.version++
	version := l.version
	l.cancel = cancel

	c.mu.Unlock()

	go func() {
		defer stopPropagation()
		defer cancel()

		fresh, fetchErr := fetchWithRetry(fetchCtx, c, cacheKey, fetch)

		c.mu.Lock()
		defer c.mu.Unlock()

		if version != l.version {
			slog.Debug("discarding superseded listing response", "key", cacheKey, "version", version, "current", l.version)
			task.finish(nil, true)
			return
		}

		l.cancel = nil
		l.view.Loading = false

		if fetchErr != nil && fetchCtx.Err() != nil {
			slog.Debug("discarding aborted listing response", "key", cacheKey)
			task.finish(nil, true)
			return
		}

		if fetchErr != nil {
			l.view.Err = fetchErr
			task.finish(fetchErr, false)
			return
		}

		l.view.Items = fresh
		l.view.Loaded = true
		l.view.FromCache = false
		l.view.Err = nil

		if err := c.cache.SetJSON(context.WithoutCancel(fetchCtx), cacheKey, fresh); err != nil {
			slog.Error("error writing session cache", "key", cacheKey, "error", err)
		}

		slog.Debug("listing refreshed", "key", cacheKey, "items", len(fresh))
		task.finish(nil, false)
	}()

	return task
}

/*
fetchWithRetry makes up to retryAttempts attempts, waiting attempt×backoff
between them. A cancelled context ends the loop immediately.
*/
func fetchWithRetry[T any](ctx context.Context, c *Controller, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	var (
		err   error
		items []T
	)

	for attempt := 1; ; attempt++ {
		if items, err = fetch(ctx); err == nil {
			if items == nil {
				items = []T{}
			}

			return items, nil
		}

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, err
		}

		if attempt >= c.retryAttempts {
			return nil, err
		}

		slog.Warn("listing fetch failed, retrying", "key", key, "attempt", attempt, "error", err)

		timer := time.NewTimer(time.Duration(attempt) * c.retryBackoff)

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()

		case <-timer.C:
		}
	}
}
