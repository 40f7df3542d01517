package sessioncache

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	GroupsKey = "groups"
)

/*
Store keeps opaque values per browser session. Entries have no expiry of
their own; they live until overwritten, deleted or until the whole session
is cleared.
*/
type Store interface {
	Get(ctx context.Context, session, key string) ([]byte, bool, error)
	Set(ctx context.Context, session, key string, value []byte) error
	Delete(ctx context.Context, session, key string) error
	Clear(ctx context.Context, session string) error
}

/*
Cache is a Store bound to a single session, with JSON helpers for the
listing snapshots.
*/
type Cache struct {
	store   Store
	session string
}

func New(store Store, session string) *Cache {
	return &Cache{
		store:   store,
		session: session,
	}
}

func (c *Cache) Session() string {
	return c.session
}

/*
GetJSON decodes the entry under key into dest. It reports false when there is
no entry.
*/
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	var (
		err   error
		b     []byte
		found bool
	)

	if b, found, err = c.store.Get(ctx, c.session, key); err != nil {
		return false, fmt.Errorf("error reading session cache key '%s': %w", key, err)
	}

	if !found {
		return false, nil
	}

	if err = json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("error decoding session cache key '%s': %w", key, err)
	}

	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding session cache key '%s': %w", key, err)
	}

	if err = c.store.Set(ctx, c.session, key, b); err != nil {
		return fmt.Errorf("error writing session cache key '%s': %w", key, err)
	}

	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, c.session, key); err != nil {
		return fmt.Errorf("error deleting session cache key '%s': %w", key, err)
	}

	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx, c.session); err != nil {
		return fmt.Errorf("error clearing session cache '%s': %w", c.session, err)
	}

	return nil
}

func AlbumsKey(group string) string {
	return "albums:" + group
}

func PhotosKey(group, album string) string {
	return "photos:" + group + ":" + album
}

func TitleKey(group, album string) string {
	return "title:" + group + ":" + album
}

func ProfileKey(email string) string {
	return "profile:" + email
}
