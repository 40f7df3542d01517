package viewmodels

import (
	internalmodels "github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
)

type EventAlbumList struct {
	BaseViewModel

	Group         string
	Albums        []internalmodels.Album
	Loading       bool
	FromCache     bool
	PendingDelete *gallery.Confirmation
}
