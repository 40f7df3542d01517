package gallery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
)

const (
	CoverStandardName    = "cover-1x.jpg"
	CoverHighDensityName = "cover-2x.jpg"
)

/*
SetCover derives the 1x/2x variant pair from r, uploads both and patches the
local coverUrl with a version token so browsers never reuse a stale image
cached under the same URL. A source that cannot be decoded fails with a
*services.DecodeError before anything is uploaded.
*/
func (c *Controller) SetCover(ctx context.Context, scope Scope, r io.Reader) (string, error) {
	var (
		err      error
		pair     services.CoverVariantPair
		coverURL string
	)

	if err = coverScope(scope); err != nil {
		return "", err
	}

	if c.variants == nil {
		return "", fmt.Errorf("no image variant generator configured")
	}

	if pair, err = c.variants.Generate(ctx, r); err != nil {
		return "", fmt.Errorf("error generating cover variants for %s: %w", scope.Kind(), err)
	}

	upload := func(name string, data []byte) (string, error) {
		if scope.IsAlbum() {
			return c.client.UploadAlbumCover(ctx, scope.Group, scope.Album, name, data)
		}

		return c.client.UploadGroupCover(ctx, scope.Group, name, data)
	}

	if coverURL, err = upload(CoverStandardName, pair.Standard); err != nil {
		return "", fmt.Errorf("error uploading standard cover of %s '%s': %w", scope.Kind(), scopeSlug(scope), err)
	}

	if _, err = upload(CoverHighDensityName, pair.HighDensity); err != nil {
		return "", fmt.Errorf("error uploading high density cover of %s '%s': %w", scope.Kind(), scopeSlug(scope), err)
	}

	if coverURL, err = withVersion(coverURL, c.nextVersion()); err != nil {
		return "", err
	}

	c.applyCover(ctx, scope, coverURL)

	slog.Info("cover updated", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "url", coverURL)
	return coverURL, nil
}

func (c *Controller) RemoveCover(ctx context.Context, scope Scope) error {
	var (
		err error
	)

	if err = coverScope(scope); err != nil {
		return err
	}

	if scope.IsAlbum() {
		err = c.client.DeleteAlbumCover(ctx, scope.Group, scope.Album)
	} else {
		err = c.client.DeleteGroupCover(ctx, scope.Group)
	}

	if err != nil {
		return fmt.Errorf("error removing cover of %s '%s': %w", scope.Kind(), scopeSlug(scope), err)
	}

	c.applyCover(ctx, scope, "")
	return nil
}

/*
HighDensityCoverURL returns the 2x sibling of a 1x cover URL, keeping its
query so the version token still applies.
*/
func HighDensityCoverURL(standardURL string) string {
	u, err := url.Parse(standardURL)
	if err != nil || !strings.HasSuffix(u.Path, "/"+CoverStandardName) {
		return ""
	}

	u.Path = strings.TrimSuffix(u.Path, CoverStandardName) + CoverHighDensityName
	u.RawPath = ""

	return u.String()
}

/*
CoverVersion returns the version token of a cover URL, or "" when it has none.
*/
func CoverVersion(coverURL string) string {
	u, err := url.Parse(coverURL)
	if err != nil {
		return ""
	}

	return u.Query().Get("v")
}

func (c *Controller) applyCover(ctx context.Context, scope Scope, coverURL string) {
	if scope.IsAlbum() {
		c.patchAlbum(ctx, scope.Group, scope.Album, func(album *models.Album) {
			album.CoverURL = coverURL
		})

		return
	}

	c.patchGroup(ctx, scope.Group, func(group *models.Group) {
		group.CoverURL = coverURL
	})
}

func coverScope(scope Scope) error {
	if err := scope.validate(); err != nil {
		return err
	}

	if scope.IsPhoto() {
		return &ValidationError{Field: "scope", Message: "photos have no cover"}
	}

	return nil
}

func scopeSlug(scope Scope) string {
	if scope.IsAlbum() {
		return scope.Group + "/" + scope.Album
	}

	return scope.Group
}

func withVersion(rawURL string, version int64) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("error parsing cover url '%s': %w", rawURL, err)
	}

	query := u.Query()
	query.Set("v", strconv.FormatInt(version, 10))
	u.RawQuery = query.Encode()

	return u.String(), nil
}
