package gallery

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
)

var errBackendDown = errors.New("backend down")

type fakeClient struct {
	mu sync.Mutex

	groups      []models.Group
	albums      map[string][]models.Album
	photos      []models.Photo
	listGroups  func(ctx context.Context, call int) ([]models.Group, error)
	uploadHook  func(ctx context.Context, file services.UploadFile) error
	deleteErr   error
	coverPrefix string

	groupListCalls int
	albumListCalls int
	photoListCalls int
	created        []string
	renamed        []string
	deleted        []string
	coverUploads   []string
	coverDeletes   int
	uploaded       []string
	uploadBatches  []int
	profiles       map[string]*models.Profile
	profileCalls   int
	profileErr     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		albums:      map[string][]models.Album{},
		profiles:    map[string]*models.Profile{},
		coverPrefix: "https://cdn.example.com/covers/",
	}
}

func (f *fakeClient) ListGroups(ctx context.Context) ([]models.Group, error) {
	f.mu.Lock()
	f.groupListCalls++
	call := f.groupListCalls
	hook := f.listGroups
	groups := append([]models.Group{}, f.groups...)
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, call)
	}

	return groups, nil
}

func (f *fakeClient) CreateGroup(ctx context.Context, slug, title string) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	group := models.Group{Slug: slug, Title: title}
	f.created = append(f.created, slug)
	f.groups = append(f.groups, group)

	return group, nil
}

func (f *fakeClient) DeleteGroup(ctx context.Context, slug string) error {
	return f.recordDelete("group:" + slug)
}

func (f *fakeClient) UpdateGroupTitle(ctx context.Context, slug, title string) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.renamed = append(f.renamed, slug+"="+title)
	return models.Group{Slug: slug, Title: title}, nil
}

func (f *fakeClient) UploadGroupCover(ctx context.Context, slug, name string, data []byte) (string, error) {
	return f.recordCover("groups/"+slug, name)
}

func (f *fakeClient) DeleteGroupCover(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.coverDeletes++
	return nil
}

func (f *fakeClient) ListAlbums(ctx context.Context, group string) ([]models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.albumListCalls++
	return append([]models.Album{}, f.albums[group]...), nil
}

func (f *fakeClient) CreateAlbum(ctx context.Context, group, slug, title string) (models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	album := models.Album{ID: slug, Slug: slug, Title: title}
	f.created = append(f.created, group+"/"+slug)
	f.albums[group] = append(f.albums[group], album)

	return album, nil
}

func (f *fakeClient) DeleteAlbum(ctx context.Context, group, album string) error {
	return f.recordDelete("album:" + group + "/" + album)
}

func (f *fakeClient) UpdateAlbumTitle(ctx context.Context, group, album, title string) (models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.renamed = append(f.renamed, group+"/"+album+"="+title)
	return models.Album{Slug: album, Title: title}, nil
}

func (f *fakeClient) UploadAlbumCover(ctx context.Context, group, album, name string, data []byte) (string, error) {
	return f.recordCover("albums/"+group+"/"+album, name)
}

func (f *fakeClient) DeleteAlbumCover(ctx context.Context, group, album string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.coverDeletes++
	return nil
}

func (f *fakeClient) ListPhotos(ctx context.Context, group, album string) ([]models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.photoListCalls++
	return append([]models.Photo{}, f.photos...), nil
}

func (f *fakeClient) UploadPhotos(ctx context.Context, group, album string, files []services.UploadFile) ([]models.Photo, error) {
	f.mu.Lock()
	hook := f.uploadHook
	f.uploadBatches = append(f.uploadBatches, len(files))
	f.mu.Unlock()

	result := []models.Photo{}

	for _, file := range files {
		if hook != nil {
			if err := hook(ctx, file); err != nil {
				return nil, err
			}
		}

		f.mu.Lock()
		photo := models.Photo{Name: file.Name}
		f.uploaded = append(f.uploaded, file.Name)
		f.photos = append(f.photos, photo)
		f.mu.Unlock()

		result = append(result, photo)
	}

	return result, nil
}

func (f *fakeClient) DeletePhoto(ctx context.Context, group, album, name string) error {
	return f.recordDelete("photo:" + group + "/" + album + "/" + name)
}

func (f *fakeClient) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.profileCalls++

	if f.profileErr != nil {
		return nil, f.profileErr
	}

	profile, ok := f.profiles[email]
	if !ok {
		return nil, models.ErrProfileNotFound
	}

	return profile, nil
}

func (f *fakeClient) recordDelete(what string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}

	f.deleted = append(f.deleted, what)
	return nil
}

func (f *fakeClient) recordCover(path, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.coverUploads = append(f.coverUploads, name)
	return f.coverPrefix + path + "/" + name, nil
}

func (f *fakeClient) counts() (groups, albums, photos int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.groupListCalls, f.albumListCalls, f.photoListCalls
}

type fakeVariants struct {
	err   error
	calls int
}

func (v *fakeVariants) Generate(ctx context.Context, r io.Reader) (services.CoverVariantPair, error) {
	v.calls++

	if v.err != nil {
		return services.CoverVariantPair{}, v.err
	}

	source, err := io.ReadAll(r)
	if err != nil {
		return services.CoverVariantPair{}, err
	}

	return services.CoverVariantPair{
		Standard:    append([]byte("1x:"), source...),
		HighDensity: append([]byte("2x:"), source...),
	}, nil
}

type testController struct {
	*Controller
	client   *fakeClient
	variants *fakeVariants
	cache    *sessioncache.Cache
}

func newTestController(t *testing.T) testController {
	t.Helper()

	client := newFakeClient()
	variants := &fakeVariants{}
	cache := sessioncache.New(sessioncache.NewMemoryStore(), "session-1")

	controller := NewController(ControllerConfig{
		Client:         client,
		Variants:       variants,
		Cache:          cache,
		RetryAttempts:  3,
		RetryBackoff:   time.Millisecond,
		MaxUploadBatch: 25,
	})

	t.Cleanup(func() {
		controller.Teardown(context.Background())
	})

	return testController{
		Controller: controller,
		client:     client,
		variants:   variants,
		cache:      cache,
	}
}

func imageFiles(names ...string) []services.UploadFile {
	result := make([]services.UploadFile, 0, len(names))

	for _, name := range names {
		result = append(result, services.UploadFile{
			Name:        name,
			ContentType: "image/jpeg",
			Data:        []byte("jpeg bytes of " + name),
		})
	}

	return result
}
