package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxPhotosPerUpload = 25
	DefaultHTTPTimeout = 30 * time.Second
)

type GalleryServicer interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, slug, title string) (models.Group, error)
	DeleteGroup(ctx context.Context, slug string) error
	UpdateGroupTitle(ctx context.Context, slug, title string) (models.Group, error)
	UploadGroupCover(ctx context.Context, slug, name string, data []byte) (string, error)
	DeleteGroupCover(ctx context.Context, slug string) error

	ListAlbums(ctx context.Context, group string) ([]models.Album, error)
	CreateAlbum(ctx context.Context, group, slug, title string) (models.Album, error)
	DeleteAlbum(ctx context.Context, group, album string) error
	UpdateAlbumTitle(ctx context.Context, group, album, title string) (models.Album, error)
	UploadAlbumCover(ctx context.Context, group, album, name string, data []byte) (string, error)
	DeleteAlbumCover(ctx context.Context, group, album string) error

	ListPhotos(ctx context.Context, group, album string) ([]models.Photo, error)
	UploadPhotos(ctx context.Context, group, album string, files []UploadFile) ([]models.Photo, error)
	DeletePhoto(ctx context.Context, group, album, name string) error

	GetProfile(ctx context.Context, email string) (*models.Profile, error)
}

/*
ThumbnailURLBuilder builds the server-side thumbnail URLs pages link to.
*/
type ThumbnailURLBuilder interface {
	ThumbURL(group, album, name string, width, height int) string
	CoverThumbURL(kind string, width, height int, version string, slugs ...string) string
}

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type GalleryServiceConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type GalleryService struct {
	baseURL    string
	httpClient *http.Client
}

/*
NewGalleryService builds a client for the remote gallery API. An empty
BaseURL is allowed: requests then carry relative URLs and fail through the
normal NetworkError path.
*/
func NewGalleryService(config GalleryServiceConfig) GalleryService {
	httpClient := config.HTTPClient

	if httpClient == nil {
		timeout := config.Timeout

		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	return GalleryService{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
	}
}

/*
GET /eventos/groups
*/
func (s GalleryService) ListGroups(ctx context.Context) ([]models.Group, error) {
	var (
		err    error
		result listPayload[models.Group]
	)

	result.key = "groups"

	if err = s.doJSON(ctx, "list groups", http.MethodGet, "/eventos/groups", nil, &result); err != nil {
		return nil, err
	}

	return result.items, nil
}

/*
POST /eventos/groups
*/
func (s GalleryService) CreateGroup(ctx context.Context, slug, title string) (models.Group, error) {
	result := models.Group{}
	body := map[string]string{"slug": slug, "title": title}

	err := s.doJSON(ctx, "create group", http.MethodPost, "/eventos/groups", body, &result)
	return result, err
}

/*
DELETE /eventos/groups/{slug}
*/
func (s GalleryService) DeleteGroup(ctx context.Context, slug string) error {
	return s.doJSON(ctx, "delete group", http.MethodDelete, joinPath("eventos", "groups", slug), nil, nil)
}

/*
PUT /eventos/groups/{slug}/title
*/
func (s GalleryService) UpdateGroupTitle(ctx context.Context, slug, title string) (models.Group, error) {
	result := models.Group{}
	body := map[string]string{"title": title}

	err := s.doJSON(ctx, "update group title", http.MethodPut, joinPath("eventos", "groups", slug, "title"), body, &result)
	return result, err
}

/*
POST /eventos/groups/{slug}/cover?name=...
*/
func (s GalleryService) UploadGroupCover(ctx context.Context, slug, name string, data []byte) (string, error) {
	return s.uploadCover(ctx, "upload group cover", joinPath("eventos", "groups", slug, "cover"), name, data)
}

/*
DELETE /eventos/groups/{slug}/cover
*/
func (s GalleryService) DeleteGroupCover(ctx context.Context, slug string) error {
	return s.doJSON(ctx, "delete group cover", http.MethodDelete, joinPath("eventos", "groups", slug, "cover"), nil, nil)
}

/*
GET /eventos/{group}/albums
*/
func (s GalleryService) ListAlbums(ctx context.Context, group string) ([]models.Album, error) {
	var (
		err    error
		result listPayload[models.Album]
	)

	result.key = "albums"

	if err = s.doJSON(ctx, "list albums", http.MethodGet, joinPath("eventos", group, "albums"), nil, &result); err != nil {
		return nil, err
	}

	return result.items, nil
}

/*
POST /eventos/{group}/albums
*/
func (s GalleryService) CreateAlbum(ctx context.Context, group, slug, title string) (models.Album, error) {
	result := models.Album{}
	body := map[string]string{"slug": slug, "title": title}

	err := s.doJSON(ctx, "create album", http.MethodPost, joinPath("eventos", group, "albums"), body, &result)
	return result, err
}

/*
DELETE /eventos/{group}/albums/{album}
*/
func (s GalleryService) DeleteAlbum(ctx context.Context, group, album string) error {
	return s.doJSON(ctx, "delete album", http.MethodDelete, joinPath("eventos", group, "albums", album), nil, nil)
}

/*
PUT /eventos/{group}/albums/{album}/title
*/
func (s GalleryService) UpdateAlbumTitle(ctx context.Context, group, album, title string) (models.Album, error) {
	result := models.Album{}
	body := map[string]string{"title": title}

	err := s.doJSON(ctx, "update album title", http.MethodPut, joinPath("eventos", group, "albums", album, "title"), body, &result)
	return result, err
}

/*
POST /eventos/{group}/albums/{album}/cover?name=...
*/
func (s GalleryService) UploadAlbumCover(ctx context.Context, group, album, name string, data []byte) (string, error) {
	return s.uploadCover(ctx, "upload album cover", joinPath("eventos", group, "albums", album, "cover"), name, data)
}

/*
DELETE /eventos/{group}/albums/{album}/cover
*/
func (s GalleryService) DeleteAlbumCover(ctx context.Context, group, album string) error {
	return s.doJSON(ctx, "delete album cover", http.MethodDelete, joinPath("eventos", group, "albums", album, "cover"), nil, nil)
}

/*
GET /eventos/{group}/{album}/photos
*/
func (s GalleryService) ListPhotos(ctx context.Context, group, album string) ([]models.Photo, error) {
	var (
		err    error
		result listPayload[models.Photo]
	)

	result.key = "photos"

	if err = s.doJSON(ctx, "list photos", http.MethodGet, joinPath("eventos", group, album, "photos"), nil, &result); err != nil {
		return nil, err
	}

	return result.items, nil
}

/*
POST /eventos/{group}/{album}/photos
*/
func (s GalleryService) UploadPhotos(ctx context.Context, group, album string, files []UploadFile) ([]models.Photo, error) {
	var (
		err    error
		part   io.Writer
		result listPayload[models.Photo]
	)

	op := "upload photos"

	if len(files) == 0 {
		return []models.Photo{}, nil
	}

	if len(files) > MaxPhotosPerUpload {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(files), MaxPhotosPerUpload)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, file := range files {
		if part, err = writer.CreatePart(filePartHeader("fotos[]", file.Name, contentTypeOf(file))); err != nil {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("error creating multipart field for '%s': %w", file.Name, err)}
		}

		if _, err = part.Write(file.Data); err != nil {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("error writing multipart field for '%s': %w", file.Name, err)}
		}
	}

	if err = writer.Close(); err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("error closing multipart body: %w", err)}
	}

	result.key = "added"

	if err = s.do(ctx, op, http.MethodPost, joinPath("eventos", group, album, "photos"), body, writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}

	return result.items, nil
}

/*
DELETE /eventos/{group}/{album}/photos/{name}
*/
func (s GalleryService) DeletePhoto(ctx context.Context, group, album, name string) error {
	return s.doJSON(ctx, "delete photo", http.MethodDelete, joinPath("eventos", group, album, "photos", name), nil, nil)
}

/*
GET /perfil/{email}
*/
func (s GalleryService) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	var (
		err        error
		networkErr *NetworkError
	)

	result := &models.Profile{}

	if err = s.doJSON(ctx, "get profile", http.MethodGet, joinPath("perfil", email), nil, result); err != nil {
		if errors.As(err, &networkErr) && networkErr.StatusCode == http.StatusNotFound {
			return nil, models.ErrProfileNotFound
		}

		return nil, err
	}

	if result.Email == "" {
		result.Email = email
	}

	return result, nil
}

/*
ThumbURL returns the server-side thumbnail URL for a stored photo.
*/
func (s GalleryService) ThumbURL(group, album, name string, width, height int) string {
	query := url.Values{}
	query.Set("w", strconv.Itoa(width))
	query.Set("h", strconv.Itoa(height))
	query.Set("fit", "cover")

	return s.baseURL + joinPath("eventos", "thumb", group, album, name) + "?" + query.Encode()
}

/*
CoverThumbURL returns the cover thumbnail URL for a group or album. kind is
"group" or "album"; slugs are the group slug, then the album slug if any.
*/
func (s GalleryService) CoverThumbURL(kind string, width, height int, version string, slugs ...string) string {
	query := url.Values{}
	query.Set("w", strconv.Itoa(width))
	query.Set("h", strconv.Itoa(height))
	query.Set("fit", "cover")

	if version != "" {
		query.Set("v", version)
	}

	segments := append([]string{"eventos", "cover-thumb", kind}, slugs...)
	return s.baseURL + joinPath(segments...) + "?" + query.Encode()
}

func (s GalleryService) uploadCover(ctx context.Context, op, path, name string, data []byte) (string, error) {
	var (
		err  error
		part io.Writer
	)

	result := struct {
		URL string `json:"url"`
	}{}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if part, err = writer.CreatePart(filePartHeader("cover", name, "image/jpeg")); err != nil {
		return "", &NetworkError{Op: op, Err: fmt.Errorf("error creating multipart field: %w", err)}
	}

	if _, err = part.Write(data); err != nil {
		return "", &NetworkError{Op: op, Err: fmt.Errorf("error writing cover data: %w", err)}
	}

	if err = writer.Close(); err != nil {
		return "", &NetworkError{Op: op, Err: fmt.Errorf("error closing multipart body: %w", err)}
	}

	query := url.Values{}
	query.Set("name", name)

	if err = s.do(ctx, op, http.MethodPost, path+"?"+query.Encode(), body, writer.FormDataContentType(), &result); err != nil {
		return "", err
	}

	if result.URL == "" {
		return "", &NetworkError{Op: op, Err: fmt.Errorf("%w: missing 'url'", ErrUnexpectedPayload)}
	}

	return result.URL, nil
}

func (s GalleryService) doJSON(ctx context.Context, op, method, path string, payload, dest any) error {
	var (
		body        io.Reader
		contentType string
	)

	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("error encoding request body: %w", err)}
		}

		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	return s.do(ctx, op, method, path, body, contentType, dest)
}

func (s GalleryService) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, dest any) error {
	var (
		err      error
		request  *http.Request
		response *http.Response
		b        []byte
	)

	if request, err = http.NewRequestWithContext(ctx, method, s.baseURL+path, body); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("error building request: %w", err)}
	}

	request.Header.Set("Accept", "application/json")

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	slog.Debug("gallery api request", "op", op, "method", method, "path", path)

	if response, err = s.httpClient.Do(request); err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		b, _ = io.ReadAll(io.LimitReader(response.Body, 1024))
		message := strings.TrimSpace(string(b))

		if message == "" {
			message = http.StatusText(response.StatusCode)
		}

		return &NetworkError{Op: op, StatusCode: response.StatusCode, Err: errors.New(message)}
	}

	if dest == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	if b, err = io.ReadAll(response.Body); err != nil {
		return &NetworkError{Op: op, StatusCode: response.StatusCode, Err: fmt.Errorf("error reading response: %w", err)}
	}

	if err = json.Unmarshal(b, dest); err != nil {
		return &NetworkError{Op: op, StatusCode: response.StatusCode, Err: fmt.Errorf("error decoding response: %w", err)}
	}

	return nil
}

/*
listPayload accepts a list either as a bare JSON array or wrapped in an object
under a single known key. Anything else is rejected here so the rest of the
code only sees a slice.
*/
type listPayload[T any] struct {
	key   string
	items []T
}

func (l *listPayload[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	items := []T{}

	if len(trimmed) == 0 {
		return ErrUnexpectedPayload
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}

	case '{':
		envelope := map[string]json.RawMessage{}

		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return err
		}

		raw, ok := envelope[l.key]
		if !ok {
			return fmt.Errorf("%w: missing '%s'", ErrUnexpectedPayload, l.key)
		}

		raw = bytes.TrimSpace(raw)

		if len(raw) == 0 || (raw[0] != '[' && !bytes.Equal(raw, []byte("null"))) {
			return fmt.Errorf("%w: '%s' is not a list", ErrUnexpectedPayload, l.key)
		}

		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: expected a list or an object", ErrUnexpectedPayload)
	}

	if items == nil {
		items = []T{}
	}

	l.items = items
	return nil
}

func joinPath(segments ...string) string {
	b := strings.Builder{}

	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(segment))
	}

	return b.String()
}

func filePartHeader(field, fileName, contentType string) textproto.MIMEHeader {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	return header
}

func contentTypeOf(file UploadFile) string {
	if file.ContentType != "" {
		return file.ContentType
	}

	return mimetype.Detect(file.Data).String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
