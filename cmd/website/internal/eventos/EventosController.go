package eventos

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	internalmodels "github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/viewmodels"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/access"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
)

const (
	coverThumbWidth  = 600
	coverThumbHeight = 400
	photoThumbWidth  = 480
	photoThumbHeight = 320

	groupListPage = "pages/eventos/groups"
	albumListPage = "pages/eventos/albums"
	photoListPage = "pages/eventos/photos"
)

type EventosHandlers interface {
	GroupListPage(w http.ResponseWriter, r *http.Request)
	AlbumListPage(w http.ResponseWriter, r *http.Request)
	PhotoListPage(w http.ResponseWriter, r *http.Request)
	PreviewImage(w http.ResponseWriter, r *http.Request)

	CreateGroupAction(w http.ResponseWriter, r *http.Request)
	UpdateGroupTitleAction(w http.ResponseWriter, r *http.Request)
	SetGroupCoverAction(w http.ResponseWriter, r *http.Request)
	RemoveGroupCoverAction(w http.ResponseWriter, r *http.Request)
	RequestGroupDeleteAction(w http.ResponseWriter, r *http.Request)

	CreateAlbumAction(w http.ResponseWriter, r *http.Request)
	UpdateAlbumTitleAction(w http.ResponseWriter, r *http.Request)
	SetAlbumCoverAction(w http.ResponseWriter, r *http.Request)
	RemoveAlbumCoverAction(w http.ResponseWriter, r *http.Request)
	RequestAlbumDeleteAction(w http.ResponseWriter, r *http.Request)

	RequestPhotoDeleteAction(w http.ResponseWriter, r *http.Request)
	ConfirmDeleteAction(w http.ResponseWriter, r *http.Request)
	CancelDeleteAction(w http.ResponseWriter, r *http.Request)

	QueuePhotosAction(w http.ResponseWriter, r *http.Request)
	RemoveQueuedPhotoAction(w http.ResponseWriter, r *http.Request)
	ClearQueueAction(w http.ResponseWriter, r *http.Request)
	UploadAction(w http.ResponseWriter, r *http.Request)
	UploadProgress(w http.ResponseWriter, r *http.Request)
}

type EventosControllerConfig struct {
	EditGate       access.Gate
	MaxUploadBytes int64
	Previews       *gallery.PreviewStore
	Renderer       rendering.TemplateRenderer
	Thumbnails     services.ThumbnailURLBuilder
}

type EventosController struct {
	editGate       access.Gate
	maxUploadBytes int64
	previews       *gallery.PreviewStore
	renderer       rendering.TemplateRenderer
	thumbnails     services.ThumbnailURLBuilder
}

func NewEventosController(config EventosControllerConfig) EventosController {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 256 << 20
	}

	return EventosController{
		editGate:       config.EditGate,
		maxUploadBytes: config.MaxUploadBytes,
		previews:       config.Previews,
		renderer:       config.Renderer,
		thumbnails:     config.Thumbnails,
	}
}

/*
GET /eventos
*/
func (c EventosController) GroupListPage(w http.ResponseWriter, r *http.Request) {
	c.renderGroupList(w, r, c.baseViewModel(r), nil)
}

/*
GET /eventos/{group}
*/
func (c EventosController) AlbumListPage(w http.ResponseWriter, r *http.Request) {
	group := httphelpers.GetFromRequest[string](r, "group")
	c.renderAlbumList(w, r, group, c.baseViewModel(r), nil)
}

/*
GET /eventos/{group}/{album}
*/
func (c EventosController) PhotoListPage(w http.ResponseWriter, r *http.Request) {
	group := httphelpers.GetFromRequest[string](r, "group")
	album := httphelpers.GetFromRequest[string](r, "album")

	c.renderPhotoList(w, r, group, album, c.baseViewModel(r), nil)
}

/*
GET /eventos/previews/{id}
*/
func (c EventosController) PreviewImage(w http.ResponseWriter, r *http.Request) {
	id := httphelpers.GetFromRequest[string](r, "id")

	contentType, data, ok := c.previews.Open(id)
	if !ok {
		httphelpers.WriteText(w, http.StatusNotFound, "preview not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = w.Write(data)
}

func (c EventosController) baseViewModel(r *http.Request) viewmodels.BaseViewModel {
	member := viewmodels.GetMemberFromContext(r)

	return viewmodels.BaseViewModel{
		IsHtmx:             httphelpers.IsHtmx(r),
		JavascriptIncludes: []rendering.JavascriptInclude{},
		Member:             member,
		CanEdit:            c.editGate.Allows(member),
	}
}

func (c EventosController) renderGroupList(w http.ResponseWriter, r *http.Request, base viewmodels.BaseViewModel, pending *gallery.Confirmation) {
	controller := viewmodels.GetGalleryFromContext(r)

	viewData := viewmodels.EventGroupList{
		BaseViewModel: base,
		Groups:        []internalmodels.Group{},
		PendingDelete: pending,
	}

	task := controller.LoadGroups(context.WithoutCancel(r.Context()))
	view := controller.Groups()

	if !view.Loaded {
		c.waitForFirstPaint(r, task, "groups")
		view = controller.Groups()
	}

	if view.Err != nil && !viewData.IsError {
		slog.Error("error listing event groups", "error", view.Err)
		viewData.IsError = true
		viewData.Message = "Não foi possível carregar os eventos. Tente novamente."
	}

	viewData.Loading = view.Loading
	viewData.FromCache = view.FromCache

	for _, group := range view.Items {
		card := internalmodels.Group{
			Slug:         group.Slug,
			Title:        group.Title,
			AlbumCount:   group.AlbumCount,
			CoverURL:     group.CoverURL,
			CoverURL2x:   gallery.HighDensityCoverURL(group.CoverURL),
			AlbumListURL: "/eventos/" + group.Slug,
		}

		if card.HasCover() {
			card.CoverThumb = c.thumbnails.CoverThumbURL("group", coverThumbWidth, coverThumbHeight, gallery.CoverVersion(group.CoverURL), group.Slug)
		}

		viewData.Groups = append(viewData.Groups, card)
	}

	c.renderer.Render(groupListPage, viewData, w)
}

func (c EventosController) renderAlbumList(w http.ResponseWriter, r *http.Request, group string, base viewmodels.BaseViewModel, pending *gallery.Confirmation) {
	controller := viewmodels.GetGalleryFromContext(r)

	viewData := viewmodels.EventAlbumList{
		BaseViewModel: base,
		Group:         group,
		Albums:        []internalmodels.Album{},
		PendingDelete: pending,
	}

	task := controller.LoadAlbums(context.WithoutCancel(r.Context()), group)
	view := controller.Albums(group)

	if !view.Loaded {
		c.waitForFirstPaint(r, task, "albums")
		view = controller.Albums(group)
	}

	if view.Err != nil && !viewData.IsError {
		slog.Error("error listing albums", "group", group, "error", view.Err)
		viewData.IsError = true
		viewData.Message = "Não foi possível carregar os álbuns deste evento."
	}

	viewData.Loading = view.Loading
	viewData.FromCache = view.FromCache

	for _, album := range view.Items {
		card := internalmodels.Album{
			Slug:         album.Slug,
			Title:        album.Title,
			CoverURL:     album.CoverURL,
			CoverURL2x:   gallery.HighDensityCoverURL(album.CoverURL),
			PhotoListURL: "/eventos/" + group + "/" + album.Slug,
		}

		if card.HasCover() {
			card.CoverThumb = c.thumbnails.CoverThumbURL("album", coverThumbWidth, coverThumbHeight, gallery.CoverVersion(album.CoverURL), group, album.Slug)
		}

		viewData.Albums = append(viewData.Albums, card)
	}

	c.renderer.Render(albumListPage, viewData, w)
}

func (c EventosController) renderPhotoList(w http.ResponseWriter, r *http.Request, group, album string, base viewmodels.BaseViewModel, pending *gallery.Confirmation) {
	controller := viewmodels.GetGalleryFromContext(r)
	queue := controller.Queue(group, album)

	viewData := viewmodels.EventPhotoList{
		BaseViewModel: base,
		Group:         group,
		Album:         album,
		AlbumTitle:    controller.DisplayTitle(r.Context(), group, album),
		Photos:        []internalmodels.Photo{},
		Queue:         queue.Items(),
		Remaining:     queue.Remaining(),
		Progress:      queue.Progress(),
		PendingDelete: pending,
	}

	if pending != nil && pending.Scope.IsPhoto() {
		deleteURL := photoDeleteURL(pending.Scope.Group, pending.Scope.Album, pending.Scope.Photo)
		viewData.ConfirmDeleteURL = deleteURL + "/confirm"
		viewData.CancelDeleteURL = deleteURL + "/cancel"
	}

	viewData.JavascriptIncludes = append(viewData.JavascriptIncludes, rendering.JavascriptInclude{
		Type: "module",
		Src:  "/static/js/pages/photos.js",
	})

	task := controller.LoadPhotos(context.WithoutCancel(r.Context()), group, album)
	view := controller.Photos(group, album)

	if !view.Loaded {
		c.waitForFirstPaint(r, task, "photos")
		view = controller.Photos(group, album)
	}

	if view.Err != nil && !viewData.IsError {
		slog.Error("error listing photos", "group", group, "album", album, "error", view.Err)
		viewData.IsError = true
		viewData.Message = "Não foi possível carregar as fotos deste álbum."
	}

	viewData.Loading = view.Loading
	viewData.FromCache = view.FromCache

	for _, photo := range view.Items {
		viewData.Photos = append(viewData.Photos, internalmodels.Photo{
			Name:        photo.Name,
			DisplayName: photo.DisplayName(),
			ThumbURL:    c.thumbnails.ThumbURL(group, album, photo.Name, photoThumbWidth, photoThumbHeight),
			OriginalURL: photo.URL,
			DeleteURL:   photoDeleteURL(group, album, photo.Name),
		})
	}

	c.renderer.Render(photoListPage, viewData, w)
}

/*
photoDeleteURL builds the delete action for a photo. Stored names may already
carry percent escapes, so each segment is escaped again to reach the handler
unchanged.
*/
func photoDeleteURL(group, album, name string) string {
	return "/eventos/" + url.PathEscape(group) + "/" + url.PathEscape(album) + "/photos/" + url.PathEscape(name) + "/delete"
}

/*
waitForFirstPaint blocks until the listing has something to show. Giving up
because the browser went away leaves the fetch running so its result still
lands in the session cache.
*/
func (c EventosController) waitForFirstPaint(r *http.Request, task *gallery.Task, what string) {
	if err := task.WaitContext(r.Context()); err != nil && r.Context().Err() != nil {
		slog.Debug("request ended before first paint", "listing", what)
	}
}

/*
applyError turns a gallery error into the page message. Validation and cover
decoding problems are the member's to fix, everything else is ours.
*/
func applyError(base *viewmodels.BaseViewModel, err error, fallback string) {
	var (
		validationErr *gallery.ValidationError
		decodeErr     *services.DecodeError
		partialErr    *gallery.PartialBatchFailure
	)

	switch {
	case errors.As(err, &validationErr):
		base.IsWarning = true
		base.Message = validationMessage(validationErr)

	case errors.As(err, &decodeErr):
		base.IsWarning = true
		base.Message = "A imagem de capa não pôde ser lida. Escolha um arquivo JPEG, PNG ou GIF."

	case errors.As(err, &partialErr):
		base.IsWarning = true
		base.Message = "Algumas fotos não foram enviadas. Elas continuam na fila para uma nova tentativa."

	case errors.Is(err, gallery.ErrConfirmationNotFound):
		base.IsWarning = true
		base.Message = "Esta exclusão já foi concluída ou cancelada."

	case errors.Is(err, gallery.ErrUploadInProgress):
		base.IsWarning = true
		base.Message = "Aguarde o envio atual terminar."

	default:
		base.IsError = true
		base.Message = fallback
	}
}

func validationMessage(err *gallery.ValidationError) string {
	switch err.Field {
	case "title":
		return "Informe um título com ao menos uma letra ou número."
	case "group", "album":
		return "Evento ou álbum não informado."
	default:
		return err.Message
	}
}
