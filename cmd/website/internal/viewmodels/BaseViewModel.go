package viewmodels

import (
	"net/http"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/adampresley/adamgokit/rendering"
)

type BaseViewModel struct {
	Message            string
	IsError            bool
	IsWarning          bool
	IsHtmx             bool
	JavascriptIncludes []rendering.JavascriptInclude
	Member             *models.Profile
	CanEdit            bool
}

/*
GetMemberFromContext returns the profile put on the request by the member
middleware, or nil for an anonymous visitor.
*/
func GetMemberFromContext(r *http.Request) *models.Profile {
	if result, ok := r.Context().Value("member").(*models.Profile); ok {
		return result
	}

	return nil
}

func GetGalleryFromContext(r *http.Request) *gallery.Controller {
	if result, ok := r.Context().Value("gallery").(*gallery.Controller); ok {
		return result
	}

	return nil
}
