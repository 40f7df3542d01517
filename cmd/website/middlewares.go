package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/access"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/google/uuid"
)

type galleryMiddlewareConfig struct {
	EmailHeader    string
	Registry       *gallery.Registry
	SessionService sessions.Session[string]
}

/*
newGalleryMiddleware attaches the session's gallery controller and the member
profile to the request. When requireEditor is set, members the edit gate does
not allow are turned away before the handler runs.
*/
func newGalleryMiddleware(config galleryMiddlewareConfig, editGate access.Gate, requireEditor bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				err     error
				member  *models.Profile
				session string
			)

			if session, err = config.SessionService.Get(r); err != nil || session == "" {
				session = uuid.NewString()

				if err = config.SessionService.Set(r, session); err != nil {
					slog.Error("error setting gallery session", "error", err)
				}

				if err = config.SessionService.Save(w, r); err != nil {
					slog.Error("error saving gallery session", "error", err)
				}
			}

			controller := config.Registry.Get(session)

			if member, err = controller.Profile(r.Context(), r.Header.Get(config.EmailHeader)); err != nil {
				slog.Error("error loading member profile, continuing as visitor", "error", err)
				member = nil
			}

			if requireEditor && !editGate.Allows(member) {
				httphelpers.WriteText(w, http.StatusForbidden, "Você não tem permissão para alterar eventos.")
				return
			}

			ctx := context.WithValue(r.Context(), "gallery", controller)
			ctx = context.WithValue(ctx, "member", member)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
