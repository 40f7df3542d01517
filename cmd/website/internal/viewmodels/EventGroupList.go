package viewmodels

import (
	internalmodels "github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
)

type EventGroupList struct {
	BaseViewModel

	Groups        []internalmodels.Group
	Loading       bool
	FromCache     bool
	PendingDelete *gallery.Confirmation
}
