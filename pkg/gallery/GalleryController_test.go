package gallery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
gatedGroups makes every ListGroups call announce itself on started and block
until its own gate is closed. The context is ignored on purpose so a
superseded call still returns a successful response.
*/
func gatedGroups(tc testController, gates []chan struct{}, results [][]models.Group) chan int {
	started := make(chan int, len(gates))

	tc.client.listGroups = func(ctx context.Context, call int) ([]models.Group, error) {
		started <- call
		<-gates[call-1]
		return results[call-1], nil
	}

	return started
}

func TestSupersededGroupFetchIsDiscarded(t *testing.T) {
	first := []models.Group{{Slug: "first", Title: "First"}}
	second := []models.Group{{Slug: "second", Title: "Second"}}

	tests := []struct {
		name         string
		releaseOrder []int
	}{
		{name: "newest answers first", releaseOrder: []int{1, 0}},
		{name: "oldest answers first", releaseOrder: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)
			gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
			started := gatedGroups(tc, gates, [][]models.Group{first, second})

			older := tc.LoadGroups(context.Background())
			require.Equal(t, 1, <-started)

			newer := tc.LoadGroups(context.Background())
			require.Equal(t, 2, <-started)

			tasks := []*Task{older, newer}

			for _, index := range tt.releaseOrder {
				close(gates[index])
				<-tasks[index].Done()
			}

			require.NoError(t, older.Wait())
			require.NoError(t, newer.Wait())
			assert.True(t, older.Stale())
			assert.False(t, newer.Stale())

			view := tc.Groups()
			assert.Equal(t, second, view.Items)
			assert.NoError(t, view.Err)
			assert.False(t, view.Loading)
		})
	}
}

func TestStaleCompletionDoesNotEndLoading(t *testing.T) {
	tc := newTestController(t)
	gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
	started := gatedGroups(tc, gates, [][]models.Group{{{Slug: "first"}}, {{Slug: "second"}}})

	older := tc.LoadGroups(context.Background())
	<-started
	newer := tc.LoadGroups(context.Background())
	<-started

	close(gates[0])
	require.True(t, older.Stale())

	view := tc.Groups()
	assert.True(t, view.Loading)
	assert.Empty(t, view.Items)

	close(gates[1])
	require.NoError(t, newer.Wait())
	assert.False(t, tc.Groups().Loading)
}

func TestGroupsPaintFromCacheThenReconcile(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()

	cached := []models.Group{{Slug: "old", Title: "Old"}}
	fresh := []models.Group{{Slug: "uai-minas-bahia", Title: "UAI! Minas Bahia", AlbumCount: 3}}

	require.NoError(t, tc.cache.SetJSON(ctx, sessioncache.GroupsKey, cached))

	gate := make(chan struct{})
	started := gatedGroups(tc, []chan struct{}{gate}, [][]models.Group{fresh})

	task := tc.LoadGroups(ctx)
	<-started

	view := tc.Groups()
	assert.Equal(t, cached, view.Items)
	assert.True(t, view.FromCache)
	assert.True(t, view.Loaded)
	assert.False(t, view.Loading)

	close(gate)
	require.NoError(t, task.Wait())

	view = tc.Groups()
	assert.Equal(t, fresh, view.Items)
	assert.False(t, view.FromCache)

	var stored []models.Group
	found, err := tc.cache.GetJSON(ctx, sessioncache.GroupsKey, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, fresh, stored)
}

func TestListingFetchRetries(t *testing.T) {
	t.Run("recovers on third attempt", func(t *testing.T) {
		tc := newTestController(t)

		tc.client.listGroups = func(ctx context.Context, call int) ([]models.Group, error) {
			if call < 3 {
				return nil, errBackendDown
			}

			return []models.Group{{Slug: "uai"}}, nil
		}

		require.NoError(t, tc.LoadGroups(context.Background()).Wait())

		calls, _, _ := tc.client.counts()
		assert.Equal(t, 3, calls)
		assert.Len(t, tc.Groups().Items, 1)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		tc := newTestController(t)

		tc.client.listGroups = func(ctx context.Context, call int) ([]models.Group, error) {
			return nil, errBackendDown
		}

		err := tc.LoadGroups(context.Background()).Wait()
		assert.ErrorIs(t, err, errBackendDown)

		calls, _, _ := tc.client.counts()
		assert.Equal(t, 3, calls)

		view := tc.Groups()
		assert.ErrorIs(t, view.Err, errBackendDown)
		assert.False(t, view.Loading)
		assert.Empty(t, view.Items)
	})
}

func TestCancelledFetchIsNotRetried(t *testing.T) {
	tc := newTestController(t)
	started := make(chan struct{}, 1)

	tc.client.listGroups = func(ctx context.Context, call int) ([]models.Group, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := tc.LoadGroups(ctx)

	<-started
	cancel()

	require.NoError(t, task.Wait())
	assert.True(t, task.Stale())

	calls, _, _ := tc.client.counts()
	assert.Equal(t, 1, calls)
	assert.NoError(t, tc.Groups().Err)
}

func TestCreateGroupValidatesTitle(t *testing.T) {
	tc := newTestController(t)

	for _, title := range []string{"", "   ", "!!!"} {
		_, err := tc.CreateGroup(context.Background(), title)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, "title %q", title)
		assert.Equal(t, "title", validationErr.Field)
	}

	assert.Empty(t, tc.client.created)
}

func TestCreateGroupMintsSlugAndReloads(t *testing.T) {
	tc := newTestController(t)

	group, err := tc.CreateGroup(context.Background(), "  UAI! Minas Bahia ")
	require.NoError(t, err)

	assert.Equal(t, "uai-minas-bahia", group.Slug)
	assert.Equal(t, []string{"uai-minas-bahia"}, tc.client.created)
	assert.Equal(t, []models.Group{{Slug: "uai-minas-bahia", Title: "UAI! Minas Bahia"}}, tc.Groups().Items)
}

func TestCreateAlbumRequiresGroup(t *testing.T) {
	tc := newTestController(t)

	_, err := tc.CreateAlbum(context.Background(), "", "Roda 2024")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "group", validationErr.Field)

	album, err := tc.CreateAlbum(context.Background(), "uai", "Roda de Março")
	require.NoError(t, err)
	assert.Equal(t, "roda-de-marco", album.Slug)
	assert.Len(t, tc.Albums("uai").Items, 1)
}

func TestUpdateTitleKeepsSlug(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.groups = []models.Group{{Slug: "uai", Title: "UAI"}}

	require.NoError(t, tc.LoadGroups(ctx).Wait())
	require.NoError(t, tc.UpdateTitle(ctx, GroupScope("uai"), "Encontro Nacional"))

	assert.Equal(t, []models.Group{{Slug: "uai", Title: "Encontro Nacional"}}, tc.Groups().Items)
	assert.Equal(t, []string{"uai=Encontro Nacional"}, tc.client.renamed)

	calls, _, _ := tc.client.counts()
	assert.Equal(t, 1, calls)

	var stored []models.Group
	_, err := tc.cache.GetJSON(ctx, sessioncache.GroupsKey, &stored)
	require.NoError(t, err)
	assert.Equal(t, "Encontro Nacional", stored[0].Title)
}

func TestLocalPatchSupersedesFetchInFlight(t *testing.T) {
	old := []models.Group{{Slug: "uai", Title: "Old"}}

	tests := []struct {
		name  string
		patch func(tc testController) error
		check func(t *testing.T, group models.Group)
	}{
		{
			name: "rename",
			patch: func(tc testController) error {
				return tc.UpdateTitle(context.Background(), GroupScope("uai"), "New")
			},
			check: func(t *testing.T, group models.Group) {
				assert.Equal(t, "New", group.Title)
			},
		},
		{
			name: "cover",
			patch: func(tc testController) error {
				_, err := tc.SetCover(context.Background(), GroupScope("uai"), strings.NewReader("image"))
				return err
			},
			check: func(t *testing.T, group models.Group) {
				assert.Contains(t, group.CoverURL, CoverStandardName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestController(t)
			ctx := context.Background()
			gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
			started := gatedGroups(tc, gates, [][]models.Group{old, old})

			close(gates[0])
			first := tc.LoadGroups(ctx)
			<-started
			require.NoError(t, first.Wait())

			inFlight := tc.LoadGroups(ctx)
			require.Equal(t, 2, <-started)

			require.NoError(t, tt.patch(tc))

			close(gates[1])
			require.NoError(t, inFlight.Wait())
			assert.True(t, inFlight.Stale())

			view := tc.Groups()
			require.Len(t, view.Items, 1)
			tt.check(t, view.Items[0])
			assert.False(t, view.Loading)

			var stored []models.Group
			_, err := tc.cache.GetJSON(ctx, sessioncache.GroupsKey, &stored)
			require.NoError(t, err)
			require.Len(t, stored, 1)
			tt.check(t, stored[0])
		})
	}
}

func TestUpdateAlbumTitleRefreshesDisplayTitle(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.albums["uai"] = []models.Album{{Slug: "roda", Title: "Roda"}}

	assert.Equal(t, "Roda", tc.DisplayTitle(ctx, "uai", "roda"))
	require.NoError(t, tc.UpdateTitle(ctx, AlbumScope("uai", "roda"), "Roda de Rua"))
	assert.Equal(t, "Roda de Rua", tc.DisplayTitle(ctx, "uai", "roda"))
	assert.Equal(t, "Roda de Rua", tc.Albums("uai").Items[0].Title)
}

func TestDisplayTitleIsMemoised(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.albums["uai"] = []models.Album{{Slug: "roda-2024", Title: "Roda 2024"}}

	assert.Equal(t, "Roda 2024", tc.DisplayTitle(ctx, "uai", "roda-2024"))
	assert.Equal(t, "Roda 2024", tc.DisplayTitle(ctx, "uai", "roda-2024"))

	_, albums, _ := tc.client.counts()
	assert.Equal(t, 1, albums)

	assert.Equal(t, "unknown", tc.DisplayTitle(ctx, "uai", "unknown"))
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.albums["uai"] = []models.Album{{Slug: "roda-2024", Title: "Roda 2024"}}
	require.NoError(t, tc.LoadAlbums(ctx, "uai").Wait())

	confirmation, err := tc.RequestDelete(AlbumScope("uai", "roda-2024"))
	require.NoError(t, err)
	assert.Equal(t, "Roda 2024", confirmation.DisplayName)
	assert.Empty(t, tc.client.deleted)

	tc.CancelDelete(confirmation.Token)

	_, err = tc.ConfirmDelete(ctx, confirmation.Token)
	assert.ErrorIs(t, err, ErrConfirmationNotFound)
	assert.Empty(t, tc.client.deleted)

	confirmation, err = tc.RequestDelete(AlbumScope("uai", "roda-2024"))
	require.NoError(t, err)

	tc.client.deleteErr = errBackendDown

	_, err = tc.ConfirmDelete(ctx, confirmation.Token)
	assert.ErrorIs(t, err, errBackendDown)

	_, pending := tc.PendingDelete(confirmation.Token)
	assert.True(t, pending)

	tc.client.deleteErr = nil
	tc.client.albums["uai"] = nil

	_, err = tc.ConfirmDelete(ctx, confirmation.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"album:uai/roda-2024"}, tc.client.deleted)
	assert.Empty(t, tc.Albums("uai").Items)

	_, albums, _ := tc.client.counts()
	assert.Equal(t, 2, albums)

	_, err = tc.ConfirmDelete(ctx, confirmation.Token)
	assert.ErrorIs(t, err, ErrConfirmationNotFound)
}

func TestDeletePhotoUsesDisplayName(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.photos = []models.Photo{{Name: "1712345678901-roda%20final.jpg"}}
	require.NoError(t, tc.LoadPhotos(ctx, "uai", "roda").Wait())

	confirmation, err := tc.RequestDelete(PhotoScope("uai", "roda", "1712345678901-roda%20final.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "roda final.jpg", confirmation.DisplayName)

	_, err = tc.ConfirmDelete(ctx, confirmation.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo:uai/roda/1712345678901-roda%20final.jpg"}, tc.client.deleted)

	_, _, photos := tc.client.counts()
	assert.Equal(t, 2, photos)
}

func TestDeleteGroupDropsItsAlbums(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.albums["uai"] = []models.Album{{Slug: "roda", Title: "Roda"}}
	require.NoError(t, tc.LoadAlbums(ctx, "uai").Wait())
	tc.Queue("uai", "roda").Add(numberedFiles(2))

	confirmation, err := tc.RequestDelete(GroupScope("uai"))
	require.NoError(t, err)
	assert.Equal(t, "uai", confirmation.DisplayName)

	_, err = tc.ConfirmDelete(ctx, confirmation.Token)
	require.NoError(t, err)

	found, err := tc.cache.GetJSON(ctx, sessioncache.AlbumsKey("uai"), &[]models.Album{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, tc.Previews().Len())
}

func TestSetCoverUploadsBothVariants(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.groups = []models.Group{{Slug: "uai", Title: "UAI"}}
	require.NoError(t, tc.LoadGroups(ctx).Wait())

	first, err := tc.SetCover(ctx, GroupScope("uai"), strings.NewReader("same image"))
	require.NoError(t, err)

	second, err := tc.SetCover(ctx, GroupScope("uai"), strings.NewReader("same image"))
	require.NoError(t, err)

	assert.Equal(t, []string{CoverStandardName, CoverHighDensityName, CoverStandardName, CoverHighDensityName}, tc.client.coverUploads)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "https://cdn.example.com/covers/groups/uai/cover-1x.jpg?v="))
	assert.Equal(t, second, tc.Groups().Items[0].CoverURL)

	require.NoError(t, tc.RemoveCover(ctx, GroupScope("uai")))
	assert.Empty(t, tc.Groups().Items[0].CoverURL)
	assert.Equal(t, 1, tc.client.coverDeletes)
}

func TestSetAlbumCover(t *testing.T) {
	tc := newTestController(t)
	ctx := context.Background()
	tc.client.albums["uai"] = []models.Album{{Slug: "roda", Title: "Roda"}}
	require.NoError(t, tc.LoadAlbums(ctx, "uai").Wait())

	coverURL, err := tc.SetCover(ctx, AlbumScope("uai", "roda"), strings.NewReader("image"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(coverURL, "https://cdn.example.com/covers/albums/uai/roda/cover-1x.jpg?v="))
	assert.Equal(t, coverURL, tc.Albums("uai").Items[0].CoverURL)
}

func TestSetCoverDecodeErrorUploadsNothing(t *testing.T) {
	tc := newTestController(t)
	tc.variants.err = &services.DecodeError{ContentType: "text/plain", Err: errors.New("content is not an image")}

	_, err := tc.SetCover(context.Background(), GroupScope("uai"), strings.NewReader("text"))

	var decodeErr *services.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Empty(t, tc.client.coverUploads)

	_, err = tc.SetCover(context.Background(), PhotoScope("uai", "roda", "a.jpg"), strings.NewReader("image"))

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestNextVersionIsStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	controller := NewController(ControllerConfig{
		Client: newFakeClient(),
		Now:    func() time.Time { return fixed },
	})
	t.Cleanup(func() { controller.Teardown(context.Background()) })

	a := controller.nextVersion()
	b := controller.nextVersion()

	assert.Equal(t, fixed.UnixMilli(), a)
	assert.Equal(t, a+1, b)
}

func TestHighDensityCoverURL(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "https://cdn.example.com/covers/groups/uai/cover-1x.jpg?v=42", expected: "https://cdn.example.com/covers/groups/uai/cover-2x.jpg?v=42"},
		{in: "https://cdn.example.com/covers/groups/uai/other.jpg", expected: ""},
		{in: "", expected: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, HighDensityCoverURL(tt.in), tt.in)
	}

	assert.Equal(t, "42", CoverVersion("https://cdn.example.com/covers/groups/uai/cover-1x.jpg?v=42"))
	assert.Empty(t, CoverVersion("https://cdn.example.com/covers/groups/uai/cover-1x.jpg"))
}
