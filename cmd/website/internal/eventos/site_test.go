package eventos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/access"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/stretchr/testify/require"
)

var (
	tokenPattern   = regexp.MustCompile(`name="token" value="([0-9a-f-]+)"`)
	previewPattern = regexp.MustCompile(`/eventos/previews/[0-9a-f-]+`)
)

/*
fakeBackend answers the gallery REST API from memory and records the
mutations it receives.
*/
type fakeBackend struct {
	mu sync.Mutex

	groups        []models.Group
	photos        map[string][]models.Photo
	renamed       []string
	covers        []string
	uploaded      []string
	deletedPhotos []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	backend := &fakeBackend{
		photos: map[string][]models.Photo{},
	}

	m := http.NewServeMux()

	m.HandleFunc("GET /eventos/groups", func(w http.ResponseWriter, r *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		writeJSON(w, map[string]any{"groups": backend.groups})
	})

	m.HandleFunc("PUT /eventos/groups/{slug}/title", func(w http.ResponseWriter, r *http.Request) {
		body := struct {
			Title string `json:"title"`
		}{}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		backend.mu.Lock()
		defer backend.mu.Unlock()

		slug := r.PathValue("slug")
		backend.renamed = append(backend.renamed, slug+"="+body.Title)

		for index := range backend.groups {
			if backend.groups[index].Slug == slug {
				backend.groups[index].Title = body.Title
			}
		}

		writeJSON(w, models.Group{Slug: slug, Title: body.Title})
	})

	m.HandleFunc("POST /eventos/groups/{slug}/cover", func(w http.ResponseWriter, r *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		slug := r.PathValue("slug")
		name := r.URL.Query().Get("name")
		coverURL := "https://cdn.example.com/groups/" + slug + "/" + name

		backend.covers = append(backend.covers, name)

		if name == gallery.CoverStandardName {
			for index := range backend.groups {
				if backend.groups[index].Slug == slug {
					backend.groups[index].CoverURL = coverURL
				}
			}
		}

		writeJSON(w, map[string]string{"url": coverURL})
	})

	m.HandleFunc("GET /eventos/{group}/{album}/photos", func(w http.ResponseWriter, r *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		key := r.PathValue("group") + "/" + r.PathValue("album")
		writeJSON(w, map[string]any{"photos": append([]models.Photo{}, backend.photos[key]...)})
	})

	m.HandleFunc("POST /eventos/{group}/{album}/photos", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		backend.mu.Lock()
		defer backend.mu.Unlock()

		key := r.PathValue("group") + "/" + r.PathValue("album")
		added := []models.Photo{}

		for _, header := range r.MultipartForm.File["fotos[]"] {
			photo := models.Photo{Name: "1700000000000-" + header.Filename}
			backend.uploaded = append(backend.uploaded, header.Filename)
			backend.photos[key] = append(backend.photos[key], photo)
			added = append(added, photo)
		}

		writeJSON(w, map[string]any{"added": added})
	})

	m.HandleFunc("DELETE /eventos/{group}/{album}/photos/{name}", func(w http.ResponseWriter, r *http.Request) {
		backend.mu.Lock()
		defer backend.mu.Unlock()

		key := r.PathValue("group") + "/" + r.PathValue("album")
		name := r.PathValue("name")
		kept := []models.Photo{}

		for _, photo := range backend.photos[key] {
			if photo.Name != name {
				kept = append(kept, photo)
			}
		}

		backend.photos[key] = kept
		backend.deletedPhotos = append(backend.deletedPhotos, name)
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(m)
	t.Cleanup(server.Close)

	return backend, server
}

func (b *fakeBackend) snapshot() (renamed, covers, uploaded, deletedPhotos []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.renamed...),
		append([]string{}, b.covers...),
		append([]string{}, b.uploaded...),
		append([]string{}, b.deletedPhotos...)
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

type testSite struct {
	backend    *fakeBackend
	controller *gallery.Controller
	handler    http.Handler
}

/*
newTestSite wires the eventos handlers the way main does, with the member
and the session's controller put on every request.
*/
func newTestSite(t *testing.T, maxUploadBatch int) testSite {
	t.Helper()

	backend, server := newFakeBackend(t)

	variants := services.NewImageVariantService(services.ImageVariantServiceConfig{
		Width:      12,
		Height:     8,
		Quality:    0.8,
		MaxWorkers: 2,
	})
	t.Cleanup(variants.Stop)

	galleryService := services.NewGalleryService(services.GalleryServiceConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})

	previews := gallery.NewPreviewStore(gallery.DefaultPreviewPrefix)

	controller := gallery.NewController(gallery.ControllerConfig{
		Client:         galleryService,
		Variants:       variants,
		Cache:          sessioncache.New(sessioncache.NewMemoryStore(), "session-1"),
		Previews:       previews,
		RetryAttempts:  1,
		RetryBackoff:   time.Millisecond,
		MaxUploadBatch: maxUploadBatch,
	})
	t.Cleanup(func() { controller.Teardown(context.Background()) })

	renderer, err := rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        os.DirFS("../.."),
		PagesDir:          "pages",
	})
	require.NoError(t, err)

	editGate := access.Gate{Required: models.LevelGraduate, RequireEditor: true}
	member := &models.Profile{Email: "ana@minasbahia.org", Name: "Ana", AccessLevel: models.LevelGraduate, Editor: true}

	c := NewEventosController(EventosControllerConfig{
		EditGate:   editGate,
		Previews:   previews,
		Renderer:   renderer,
		Thumbnails: galleryService,
	})

	m := http.NewServeMux()

	handle := func(pattern string, handler http.HandlerFunc) {
		m.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), "gallery", controller)
			ctx = context.WithValue(ctx, "member", member)
			handler(w, r.WithContext(ctx))
		}))
	}

	handle("GET /eventos", c.GroupListPage)
	handle("GET /eventos/previews/{id}", c.PreviewImage)
	handle("POST /eventos/groups/{group}/title", c.UpdateGroupTitleAction)
	handle("GET /eventos/{group}/{album}", c.PhotoListPage)
	handle("POST /eventos/{group}/{album}/queue", c.QueuePhotosAction)
	handle("POST /eventos/{group}/{album}/upload", c.UploadAction)
	handle("GET /eventos/{group}/{album}/upload/progress", c.UploadProgress)
	handle("POST /eventos/{group}/{album}/photos/{name}/delete", c.RequestPhotoDeleteAction)
	handle("POST /eventos/{group}/{album}/photos/{name}/delete/confirm", c.ConfirmDeleteAction)
	handle("POST /eventos/{group}/{album}/photos/{name}/delete/cancel", c.CancelDeleteAction)

	return testSite{
		backend:    backend,
		controller: controller,
		handler:    m,
	}
}

func (s testSite) do(t *testing.T, method, target string, body io.Reader, contentType string) (int, string) {
	t.Helper()

	request := httptest.NewRequest(method, target, body)

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)

	return recorder.Code, recorder.Body.String()
}

func (s testSite) get(t *testing.T, target string) (int, string) {
	return s.do(t, http.MethodGet, target, nil, "")
}

func (s testSite) postForm(t *testing.T, target string, values url.Values) (int, string) {
	return s.do(t, http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func (s testSite) postMultipart(t *testing.T, target string, values map[string]string, files ...formFile) (int, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range values {
		require.NoError(t, writer.WriteField(key, value))
	}

	for _, file := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.field, file.name))
		header.Set("Content-Type", file.contentType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)

		_, err = part.Write(file.data)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return s.do(t, http.MethodPost, target, body, writer.FormDataContentType())
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 90, A: 255})
		}
	}

	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngFile(t *testing.T, field, name string) formFile {
	return formFile{field: field, name: name, contentType: "image/png", data: encodePNG(t, 30, 20)}
}
