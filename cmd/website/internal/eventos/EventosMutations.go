package eventos

import (
	"log/slog"
	"net/http"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/viewmodels"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/adampresley/adamgokit/httphelpers"
)

/*
POST /eventos/groups
*/
func (c EventosController) CreateGroupAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	title := httphelpers.GetFromRequest[string](r, "title")

	group, err := controller.CreateGroup(r.Context(), title)
	if err != nil {
		slog.Error("error creating event group", "title", title, "error", err)
		applyError(&base, err, "Não foi possível criar o evento.")
		c.renderGroupList(w, r, base, nil)
		return
	}

	if cover, ok := c.formCover(r); ok {
		defer cover.Close()

		if _, err = controller.SetCover(r.Context(), gallery.GroupScope(group.Slug), cover); err != nil {
			slog.Error("error setting cover of new group", "group", group.Slug, "error", err)
			applyError(&base, err, "O evento foi criado, mas a capa não pôde ser enviada.")
			c.renderGroupList(w, r, base, nil)
			return
		}
	}

	base.Message = "Evento criado."
	c.renderGroupList(w, r, base, nil)
}

/*
POST /eventos/groups/{group}/title
*/
func (c EventosController) UpdateGroupTitleAction(w http.ResponseWriter, r *http.Request) {
	c.updateTitle(w, r, gallery.GroupScope(httphelpers.GetFromRequest[string](r, "group")))
}

/*
POST /eventos/groups/{group}/cover
*/
func (c EventosController) SetGroupCoverAction(w http.ResponseWriter, r *http.Request) {
	c.setCover(w, r, gallery.GroupScope(httphelpers.GetFromRequest[string](r, "group")))
}

/*
POST /eventos/groups/{group}/cover/remove
*/
func (c EventosController) RemoveGroupCoverAction(w http.ResponseWriter, r *http.Request) {
	c.removeCover(w, r, gallery.GroupScope(httphelpers.GetFromRequest[string](r, "group")))
}

/*
POST /eventos/groups/{group}/delete
*/
func (c EventosController) RequestGroupDeleteAction(w http.ResponseWriter, r *http.Request) {
	c.requestDelete(w, r, gallery.GroupScope(httphelpers.GetFromRequest[string](r, "group")))
}

/*
POST /eventos/{group}/albums
*/
func (c EventosController) CreateAlbumAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	group := httphelpers.GetFromRequest[string](r, "group")
	title := httphelpers.GetFromRequest[string](r, "title")

	album, err := controller.CreateAlbum(r.Context(), group, title)
	if err != nil {
		slog.Error("error creating album", "group", group, "title", title, "error", err)
		applyError(&base, err, "Não foi possível criar o álbum.")
		c.renderAlbumList(w, r, group, base, nil)
		return
	}

	if cover, ok := c.formCover(r); ok {
		defer cover.Close()

		if _, err = controller.SetCover(r.Context(), gallery.AlbumScope(group, album.Slug), cover); err != nil {
			slog.Error("error setting cover of new album", "group", group, "album", album.Slug, "error", err)
			applyError(&base, err, "O álbum foi criado, mas a capa não pôde ser enviada.")
			c.renderAlbumList(w, r, group, base, nil)
			return
		}
	}

	base.Message = "Álbum criado."
	c.renderAlbumList(w, r, group, base, nil)
}

/*
POST /eventos/{group}/{album}/title
*/
func (c EventosController) UpdateAlbumTitleAction(w http.ResponseWriter, r *http.Request) {
	c.updateTitle(w, r, albumScopeFromRequest(r))
}

/*
POST /eventos/{group}/{album}/cover
*/
func (c EventosController) SetAlbumCoverAction(w http.ResponseWriter, r *http.Request) {
	c.setCover(w, r, albumScopeFromRequest(r))
}

/*
POST /eventos/{group}/{album}/cover/remove
*/
func (c EventosController) RemoveAlbumCoverAction(w http.ResponseWriter, r *http.Request) {
	c.removeCover(w, r, albumScopeFromRequest(r))
}

/*
POST /eventos/{group}/{album}/delete
*/
func (c EventosController) RequestAlbumDeleteAction(w http.ResponseWriter, r *http.Request) {
	c.requestDelete(w, r, albumScopeFromRequest(r))
}

/*
POST /eventos/{group}/{album}/photos/{name}/delete
*/
func (c EventosController) RequestPhotoDeleteAction(w http.ResponseWriter, r *http.Request) {
	c.requestDelete(w, r, scopeFromRequest(r))
}

/*
POST .../delete/confirm
*/
func (c EventosController) ConfirmDeleteAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	token := httphelpers.GetFromRequest[string](r, "token")
	scope := scopeFromRequest(r)

	confirmation, err := controller.ConfirmDelete(r.Context(), token)

	if err != nil {
		slog.Error("error confirming delete", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "error", err)
		applyError(&base, err, "Não foi possível excluir. Tente novamente.")

		if pending, ok := controller.PendingDelete(token); ok {
			c.renderScope(w, r, scope, base, &pending)
			return
		}

		c.renderScope(w, r, scope, base, nil)
		return
	}

	base.Message = "\"" + confirmation.DisplayName + "\" foi excluído."
	c.renderScope(w, r, confirmation.Scope, base, nil)
}

/*
POST .../delete/cancel
*/
func (c EventosController) CancelDeleteAction(w http.ResponseWriter, r *http.Request) {
	controller := viewmodels.GetGalleryFromContext(r)
	scope := scopeFromRequest(r)

	controller.CancelDelete(httphelpers.GetFromRequest[string](r, "token"))
	c.renderScope(w, r, scope, c.baseViewModel(r), nil)
}

/*
updateTitle renames the entity and, when the form also carries a cover file,
sets the cover afterwards. The two are separate calls, so a cover that fails
to decode leaves the new title saved.
*/
func (c EventosController) updateTitle(w http.ResponseWriter, r *http.Request, scope gallery.Scope) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)
	title := httphelpers.GetFromRequest[string](r, "title")

	if err := controller.UpdateTitle(r.Context(), scope, title); err != nil {
		slog.Error("error updating title", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "error", err)
		applyError(&base, err, "Não foi possível salvar o título.")
		c.renderScope(w, r, scope, base, nil)
		return
	}

	base.Message = "Título atualizado."

	if cover, ok := c.formCover(r); ok {
		defer cover.Close()

		if _, err := controller.SetCover(r.Context(), scope, cover); err != nil {
			slog.Error("error setting cover after title update", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "error", err)
			applyError(&base, err, "O título foi salvo, mas a capa não pôde ser enviada.")
		}
	}

	c.renderScope(w, r, scope, base, nil)
}

func (c EventosController) setCover(w http.ResponseWriter, r *http.Request, scope gallery.Scope) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)

	cover, ok := c.formCover(r)
	if !ok {
		base.IsWarning = true
		base.Message = "Escolha uma imagem para a capa."
		c.renderScope(w, r, scope, base, nil)
		return
	}

	defer cover.Close()

	if _, err := controller.SetCover(r.Context(), scope, cover); err != nil {
		slog.Error("error setting cover", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "error", err)
		applyError(&base, err, "Não foi possível enviar a capa.")
		c.renderScope(w, r, scope, base, nil)
		return
	}

	base.Message = "Capa atualizada."
	c.renderScope(w, r, scope, base, nil)
}

func (c EventosController) removeCover(w http.ResponseWriter, r *http.Request, scope gallery.Scope) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)

	if err := controller.RemoveCover(r.Context(), scope); err != nil {
		slog.Error("error removing cover", "kind", scope.Kind(), "group", scope.Group, "album", scope.Album, "error", err)
		applyError(&base, err, "Não foi possível remover a capa.")
	} else {
		base.Message = "Capa removida."
	}

	c.renderScope(w, r, scope, base, nil)
}

func (c EventosController) requestDelete(w http.ResponseWriter, r *http.Request, scope gallery.Scope) {
	controller := viewmodels.GetGalleryFromContext(r)
	base := c.baseViewModel(r)

	confirmation, err := controller.RequestDelete(scope)
	if err != nil {
		applyError(&base, err, "Não foi possível preparar a exclusão.")
		c.renderScope(w, r, scope, base, nil)
		return
	}

	c.renderScope(w, r, scope, base, &confirmation)
}

/*
renderScope renders the listing page that shows entities of scope's kind:
the group list for a group, the album list for an album and the photo list
for a photo.
*/
func (c EventosController) renderScope(w http.ResponseWriter, r *http.Request, scope gallery.Scope, base viewmodels.BaseViewModel, pending *gallery.Confirmation) {
	switch {
	case scope.IsPhoto():
		c.renderPhotoList(w, r, scope.Group, scope.Album, base, pending)
	case scope.IsAlbum():
		c.renderAlbumList(w, r, scope.Group, base, pending)
	default:
		c.renderGroupList(w, r, base, pending)
	}
}

func albumScopeFromRequest(r *http.Request) gallery.Scope {
	return gallery.AlbumScope(
		httphelpers.GetFromRequest[string](r, "group"),
		httphelpers.GetFromRequest[string](r, "album"),
	)
}

/*
scopeFromRequest reads whichever of group, album and photo name the route
carries.
*/
func scopeFromRequest(r *http.Request) gallery.Scope {
	return gallery.Scope{
		Group: httphelpers.GetFromRequest[string](r, "group"),
		Album: httphelpers.GetFromRequest[string](r, "album"),
		Photo: httphelpers.GetFromRequest[string](r, "name"),
	}
}
