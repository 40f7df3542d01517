package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/slug"
	"github.com/google/uuid"
)

/*
Confirmation is the first step of a delete: it names what is about to be
removed. Nothing is sent to the backend until ConfirmDelete is called with
its token.
*/
type Confirmation struct {
	Token       string
	Scope       Scope
	DisplayName string
}

/*
CreateGroup mints a prospective slug from the title, creates the group and
then reloads the whole group list so server-assigned fields win.
*/
func (c *Controller) CreateGroup(ctx context.Context, title string) (models.Group, error) {
	var (
		err    error
		result models.Group
		s      string
	)

	if title, s, err = validateTitle(title); err != nil {
		return result, err
	}

	if result, err = c.client.CreateGroup(ctx, s, title); err != nil {
		return result, fmt.Errorf("error creating group '%s': %w", title, err)
	}

	c.refresh(ctx, c.LoadGroups(ctx), sessioncache.GroupsKey)
	return result, nil
}

func (c *Controller) CreateAlbum(ctx context.Context, group, title string) (models.Album, error) {
	var (
		err    error
		result models.Album
		s      string
	)

	if err = GroupScope(group).validate(); err != nil {
		return result, err
	}

	if title, s, err = validateTitle(title); err != nil {
		return result, err
	}

	if result, err = c.client.CreateAlbum(ctx, group, s, title); err != nil {
		return result, fmt.Errorf("error creating album '%s' in group '%s': %w", title, group, err)
	}

	c.refresh(ctx, c.LoadAlbums(ctx, group), sessioncache.AlbumsKey(group))
	return result, nil
}

/*
UpdateTitle renames a group or an album and patches only the title of the
local entity. The slug stays as originally minted, so no refetch is needed.
*/
func (c *Controller) UpdateTitle(ctx context.Context, scope Scope, title string) error {
	var (
		err error
	)

	if err = scope.validate(); err != nil {
		return err
	}

	if scope.IsPhoto() {
		return &ValidationError{Field: "scope", Message: "photos have no editable title"}
	}

	if title, _, err = validateTitle(title); err != nil {
		return err
	}

	if scope.IsAlbum() {
		if _, err = c.client.UpdateAlbumTitle(ctx, scope.Group, scope.Album, title); err != nil {
			return fmt.Errorf("error renaming album '%s/%s': %w", scope.Group, scope.Album, err)
		}

		c.patchAlbum(ctx, scope.Group, scope.Album, func(album *models.Album) {
			album.Title = title
		})

		if err = c.cache.SetJSON(ctx, sessioncache.TitleKey(scope.Group, scope.Album), title); err != nil {
			slog.Error("error updating display title memo", "group", scope.Group, "album", scope.Album, "error", err)
		}

		return nil
	}

	if _, err = c.client.UpdateGroupTitle(ctx, scope.Group, title); err != nil {
		return fmt.Errorf("error renaming group '%s': %w", scope.Group, err)
	}

	c.patchGroup(ctx, scope.Group, func(group *models.Group) {
		group.Title = title
	})

	return nil
}

/*
RequestDelete opens the confirmation step for deleting a group, album or
photo.
*/
func (c *Controller) RequestDelete(scope Scope) (Confirmation, error) {
	if err := scope.validate(); err != nil {
		return Confirmation{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	confirmation := Confirmation{
		Token:       uuid.NewString(),
		Scope:       scope,
		DisplayName: c.displayNameLocked(scope),
	}

	c.pendingDeletes[confirmation.Token] = confirmation
	return confirmation, nil
}

func (c *Controller) PendingDelete(token string) (Confirmation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	confirmation, ok := c.pendingDeletes[token]
	return confirmation, ok
}

func (c *Controller) CancelDelete(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pendingDeletes, token)
}

/*
ConfirmDelete executes a previously requested delete and reloads the listing
the entity belonged to. A failed delete keeps the confirmation so the user can
try again.
*/
func (c *Controller) ConfirmDelete(ctx context.Context, token string) (Confirmation, error) {
	var (
		err error
	)

	c.mu.Lock()
	confirmation, ok := c.pendingDeletes[token]
	delete(c.pendingDeletes, token)
	c.mu.Unlock()

	if !ok {
		return confirmation, ErrConfirmationNotFound
	}

	scope := confirmation.Scope

	switch {
	case scope.IsPhoto():
		err = c.client.DeletePhoto(ctx, scope.Group, scope.Album, scope.Photo)
	case scope.IsAlbum():
		err = c.client.DeleteAlbum(ctx, scope.Group, scope.Album)
	default:
		err = c.client.DeleteGroup(ctx, scope.Group)
	}

	if err != nil {
		c.mu.Lock()
		c.pendingDeletes[token] = confirmation
		c.mu.Unlock()

		return confirmation, fmt.Errorf("error deleting %s '%s': %w", scope.Kind(), confirmation.DisplayName, err)
	}

	slog.Info("deleted gallery entity", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "photo", scope.Photo)

	switch {
	case scope.IsPhoto():
		c.refresh(ctx, c.LoadPhotos(ctx, scope.Group, scope.Album), sessioncache.PhotosKey(scope.Group, scope.Album))

	case scope.IsAlbum():
		c.forgetAlbum(ctx, scope.Group, scope.Album)
		c.refresh(ctx, c.LoadAlbums(ctx, scope.Group), sessioncache.AlbumsKey(scope.Group))

	default:
		c.forgetGroup(ctx, scope.Group)
		c.refresh(ctx, c.LoadGroups(ctx), sessioncache.GroupsKey)
	}

	return confirmation, nil
}

/*
DisplayTitle returns the album title for page headings, memoised in the
session cache so navigating back does not refetch the album list.
*/
func (c *Controller) DisplayTitle(ctx context.Context, group, album string) string {
	var (
		err   error
		title string
		found bool
	)

	key := sessioncache.TitleKey(group, album)

	if found, err = c.cache.GetJSON(ctx, key, &title); err == nil && found && title != "" {
		return title
	}

	title = c.albumTitle(group, album)

	if title == "" {
		if err = c.LoadAlbums(ctx, group).Wait(); err != nil {
			slog.Warn("error loading albums for display title", "group", group, "album", album, "error", err)
		}

		title = c.albumTitle(group, album)
	}

	if title == "" {
		return album
	}

	if err = c.cache.SetJSON(ctx, key, title); err != nil {
		slog.Error("error memoising display title", "group", group, "album", album, "error", err)
	}

	return title
}

func (c *Controller) albumTitle(group, album string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.albumListing(group).view.Items {
		if a.Slug == album {
			return a.Title
		}
	}

	return ""
}

func (c *Controller) displayNameLocked(scope Scope) string {
	switch {
	case scope.IsPhoto():
		for _, photo := range c.photoListing(scope.Group, scope.Album).view.Items {
			if photo.Name == scope.Photo {
				return photo.DisplayName()
			}
		}

		return models.Photo{Name: scope.Photo}.DisplayName()

	case scope.IsAlbum():
		for _, album := range c.albumListing(scope.Group).view.Items {
			if album.Slug == scope.Album {
				return album.Title
			}
		}

		return scope.Album

	default:
		for _, group := range c.groups.view.Items {
			if group.Slug == scope.Group {
				return group.Title
			}
		}

		return scope.Group
	}
}

/*
patchGroup applies fn to the matching local group and persists the patched
list so the next paint from cache agrees. A group fetch still in flight is
superseded so its older response cannot undo the patch.
*/
func (c *Controller) patchGroup(ctx context.Context, slug string, fn func(*models.Group)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	patched := false

	for index := range c.groups.view.Items {
		if c.groups.view.Items[index].Slug == slug {
			fn(&c.groups.view.Items[index])
			patched = true
		}
	}

	if !patched {
		return
	}

	c.groups.supersede()

	if c.groups.view.Loaded {
		if err := c.cache.SetJSON(ctx, sessioncache.GroupsKey, c.groups.view.Items); err != nil {
			slog.Error("error writing patched groups to session cache", "error", err)
		}
	}
}

func (c *Controller) patchAlbum(ctx context.Context, group, slug string, fn func(*models.Album)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.albumListing(group)

	patched := false

	for index := range l.view.Items {
		if l.view.Items[index].Slug == slug {
			fn(&l.view.Items[index])
			patched = true
		}
	}

	if !patched {
		return
	}

	l.supersede()

	if l.view.Loaded {
		if err := c.cache.SetJSON(ctx, sessioncache.AlbumsKey(group), l.view.Items); err != nil {
			slog.Error("error writing patched albums to session cache", "group", group, "error", err)
		}
	}
}

func (c *Controller) forgetGroup(ctx context.Context, group string) {
	c.mu.Lock()
	albums := c.albums[group]
	delete(c.albums, group)
	c.mu.Unlock()

	if albums != nil {
		for _, album := range albums.view.Items {
			c.forgetAlbum(ctx, group, album.Slug)
		}
	}

	if err := c.cache.Delete(ctx, sessioncache.AlbumsKey(group)); err != nil {
		slog.Error("error dropping album cache of deleted group", "group", group, "error", err)
	}
}

func (c *Controller) forgetAlbum(ctx context.Context, group, album string) {
	key := sessioncache.PhotosKey(group, album)

	c.mu.Lock()
	delete(c.photos, key)
	queue := c.queues[key]
	delete(c.queues, key)
	c.mu.Unlock()

	if queue != nil {
		queue.release()
	}

	for _, k := range []string{key, sessioncache.TitleKey(group, album)} {
		if err := c.cache.Delete(ctx, k); err != nil {
			slog.Error("error dropping cache of deleted album", "key", k, "error", err)
		}
	}
}

func (c *Controller) refresh(ctx context.Context, task *Task, key string) {
	if err := task.Wait(); err != nil {
		slog.Error("error refreshing listing after mutation", "key", key, "error", err)
	}
}

func validateTitle(title string) (string, string, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return "", "", &ValidationError{Field: "title", Message: "title is required"}
	}

	s := slug.Slugify(title)

	if s == "" {
		return "", "", &ValidationError{Field: "title", Message: "title must contain at least one letter or digit"}
	}

	return title, s, nil
}
