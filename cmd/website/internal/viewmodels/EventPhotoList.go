package viewmodels

import (
	internalmodels "github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
)

type EventPhotoList struct {
	BaseViewModel

	Group         string
	Album         string
	AlbumTitle    string
	Photos        []internalmodels.Photo
	Loading       bool
	FromCache     bool
	Queue         []gallery.PendingUpload
	Remaining     int
	Progress      gallery.Progress
	PendingDelete *gallery.Confirmation

	/* Form actions for the pending photo delete, escaped server side */
	ConfirmDeleteURL string
	CancelDeleteURL  string
}
