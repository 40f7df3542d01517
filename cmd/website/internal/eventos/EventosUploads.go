package eventos

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/viewmodels"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/adampresley/adamgokit/httphelpers"
)

/*
POST /eventos/{group}/{album}/queue
*/
func (c EventosController) QueuePhotosAction(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		files []services.UploadFile
	)

	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	group := httphelpers.GetFromRequest[string](r, "group")
	album := httphelpers.GetFromRequest[string](r, "album")

	if files, err = c.formPhotos(r); err != nil {
		slog.Error("error reading selected photos", "group", group, "album", album, "error", err)
		base.IsError = true
		base.Message = "Não foi possível ler as fotos selecionadas."
		c.renderPhotoList(w, r, group, album, base, nil)
		return
	}

	queue := controller.Queue(group, album)
	result := queue.Add(files)
	base.Message = queueMessage(result, queue.Limit())
	base.IsWarning = result.Ignored > 0 || result.Rejected > 0

	c.renderPhotoList(w, r, group, album, base, nil)
}

/*
POST /eventos/{group}/{album}/queue/{id}/remove
*/
func (c EventosController) RemoveQueuedPhotoAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	group := httphelpers.GetFromRequest[string](r, "group")
	album := httphelpers.GetFromRequest[string](r, "album")
	id := httphelpers.GetFromRequest[string](r, "id")

	if err := controller.Queue(group, album).Remove(id); err != nil {
		applyError(&base, err, "Não foi possível remover a foto da fila.")
	}

	c.renderPhotoList(w, r, group, album, base, nil)
}

/*
POST /eventos/{group}/{album}/queue/clear
*/
func (c EventosController) ClearQueueAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	group := httphelpers.GetFromRequest[string](r, "group")
	album := httphelpers.GetFromRequest[string](r, "album")

	if err := controller.Queue(group, album).Clear(); err != nil {
		applyError(&base, err, "Não foi possível limpar a fila.")
	}

	c.renderPhotoList(w, r, group, album, base, nil)
}

/*
POST /eventos/{group}/{album}/upload
*/
func (c EventosController) UploadAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	group := httphelpers.GetFromRequest[string](r, "group")
	album := httphelpers.GetFromRequest[string](r, "album")

	result, err := controller.Queue(group, album).Send(r.Context(), func(p gallery.Progress) {
		slog.Debug("upload progress", "group", group, "album", album, "completed", p.Completed, "total", p.Total, "percent", p.Percent)
	})

	switch {
	case err != nil:
		slog.Error("error sending upload batch", "group", group, "album", album, "failed", result.Failed, "total", result.Total, "error", err)
		applyError(&base, err, "O envio foi interrompido. As fotos restantes continuam na fila.")

	case result.Total == 0:
		base.IsWarning = true
		base.Message = "Não há fotos na fila."

	default:
		base.Message = fmt.Sprintf("%d foto(s) enviada(s).", result.Succeeded)
	}

	c.renderPhotoList(w, r, group, album, base, nil)
}

/*
GET /eventos/{group}/{album}/upload/progress
*/
func (c EventosController) UploadProgress(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	group := httphelpers.GetFromRequest[string](r, "group")
	album := httphelpers.GetFromRequest[string](r, "album")

	progress := controller.Queue(group, album).Progress()

	markup := fmt.Sprintf(
		"<progress max='100' value='%d'>%d%%</progress> <span>%d/%d</span>",
		progress.Percent, progress.Percent, progress.Completed, progress.Total,
	)

	httphelpers.WriteHtml(w, http.StatusOK, markup)
}

/*
queueMessage describes what happened to a selection. Files dropped for
either reason are reported together.
*/
func queueMessage(result gallery.AddResult, limit int) string {
	notes := []string{}

	if len(result.Added) > 0 {
		notes = append(notes, fmt.Sprintf("%d foto(s) na fila de envio.", len(result.Added)))
	}

	if result.Ignored > 0 {
		notes = append(notes, fmt.Sprintf("%d arquivo(s) ignorado(s): o limite é de %d fotos por envio.", result.Ignored, limit))
	}

	if result.Rejected > 0 {
		notes = append(notes, fmt.Sprintf("%d arquivo(s) não são imagens e foram ignorados.", result.Rejected))
	}

	return strings.Join(notes, " ")
}

/*
formCover returns the "cover" file of a multipart form, if one was sent.
*/
func (c EventosController) formCover(r *http.Request) (multipart.File, bool) {
	if err := r.ParseMultipartForm(c.maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			slog.Error("error parsing cover form", "error", err)
		}

		return nil, false
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		return nil, false
	}

	if header.Size == 0 {
		_ = file.Close()
		return nil, false
	}

	return file, true
}

/*
formPhotos reads every file sent under "fotos[]" (or "fotos").
*/
func (c EventosController) formPhotos(r *http.Request) ([]services.UploadFile, error) {
	var (
		err    error
		result []services.UploadFile
	)

	if err = r.ParseMultipartForm(c.maxUploadBytes); err != nil {
		return nil, fmt.Errorf("error parsing photo form: %w", err)
	}

	headers := append(r.MultipartForm.File["fotos[]"], r.MultipartForm.File["fotos"]...)

	for _, header := range headers {
		var (
			file multipart.File
			data []byte
		)

		if file, err = header.Open(); err != nil {
			return nil, fmt.Errorf("error opening '%s': %w", header.Filename, err)
		}

		data, err = io.ReadAll(file)
		_ = file.Close()

		if err != nil {
			return nil, fmt.Errorf("error reading '%s': %w", header.Filename, err)
		}

		result = append(result, services.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return result, nil
}
