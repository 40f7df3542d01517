package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/configuration"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/cmd/website/internal/eventos"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/access"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/gallery"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/redis/go-redis/v9"
)

var (
	Version string = "development"
	appName string = "minasbahiaeventos"

	//go:embed app
	appFS embed.FS

	config configuration.Config

	/* Services */
	galleryService  services.GalleryService
	registry        *gallery.Registry
	renderer        rendering.TemplateRenderer
	sessionService  sessions.Session[string]
	sessionStore    sessioncache.Store
	variantsService services.ImageVariantService

	/* Controllers */
	eventosController eventos.EventosHandlers

	editGate = access.Gate{
		Required:      models.LevelGraduate,
		RequireEditor: true,
	}
)

func main() {
	var (
		err         error
		redisClient *redis.Client
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("apiBaseURL", config.ApiBaseURL),
		slog.String("sessionCacheBackend", config.SessionCacheBackend),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())
	sessionIdle := time.Duration(config.SessionIdleMinutes) * time.Minute

	/*
	 * Setup services
	 */
	switch strings.ToLower(config.SessionCacheBackend) {
	case "redis":
		retrier.Retry(func() error {
			if redisClient, err = sessioncache.NewRedisClient(shutdownCtx, config.RedisURL); err != nil {
				slog.Error("failed to connect to redis. trying again", "error", err)
				return err
			}

			return nil
		})

		if err != nil {
			panic(err)
		}

		defer redisClient.Close()

		sessionStore = sessioncache.NewRedisStore(sessioncache.RedisStoreConfig{
			Client:    redisClient,
			Namespace: appName,
			IdleTTL:   sessionIdle,
		})

	default:
		sessionStore = sessioncache.NewMemoryStore()
	}

	galleryService = services.NewGalleryService(services.GalleryServiceConfig{
		BaseURL: config.ApiBaseURL,
		Timeout: time.Duration(config.HttpTimeoutSeconds) * time.Second,
	})

	variantsService = services.NewImageVariantService(services.ImageVariantServiceConfig{
		Width:      config.CoverWidth,
		Height:     config.CoverHeight,
		Quality:    float64(config.CoverQuality) / 100,
		MaxWorkers: config.MaxVariantWorkers,
	})

	previews := gallery.NewPreviewStore(gallery.DefaultPreviewPrefix)

	registry = gallery.NewRegistry(gallery.RegistryConfig{
		IdleTimeout: sessionIdle,
		Factory: func(session string) *gallery.Controller {
			return gallery.NewController(gallery.ControllerConfig{
				Client:         galleryService,
				Variants:       variantsService,
				Cache:          sessioncache.New(sessionStore, session),
				Previews:       previews,
				RetryAttempts:  config.RetryAttempts,
				RetryBackoff:   time.Duration(config.RetryBackoffMs) * time.Millisecond,
				MaxUploadBatch: config.MaxUploadBatch,
			})
		},
	})

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	cookieStore := sessions.NewCookieStore(config.CookieSecret)
	sessionService = sessions.NewSessionWrapper[string](cookieStore, appName, "session")

	/*
	 * Setup controllers
	 */
	eventosController = eventos.NewEventosController(eventos.EventosControllerConfig{
		EditGate:   editGate,
		Previews:   previews,
		Renderer:   renderer,
		Thumbnails: galleryService,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	middlewareConfig := galleryMiddlewareConfig{
		EmailHeader:    config.ForwardedEmailHeader,
		Registry:       registry,
		SessionService: sessionService,
	}

	viewer := []mux.MiddlewareFunc{newGalleryMiddleware(middlewareConfig, editGate, false)}
	editor := []mux.MiddlewareFunc{newGalleryMiddleware(middlewareConfig, editGate, true)}

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /", HandlerFunc: func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/eventos", http.StatusFound) }},
		{Path: "POST /sessao/encerrar", HandlerFunc: endSession},

		{Path: "GET /eventos", HandlerFunc: eventosController.GroupListPage, Middlewares: viewer},
		{Path: "GET /eventos/previews/{id}", HandlerFunc: eventosController.PreviewImage, Middlewares: editor},
		{Path: "POST /eventos/groups", HandlerFunc: eventosController.CreateGroupAction, Middlewares: editor},
		{Path: "POST /eventos/groups/{group}/title", HandlerFunc: eventosController.UpdateGroupTitleAction, Middlewares: editor},
		{Path: "POST /eventos/groups/{group}/cover", HandlerFunc: eventosController.SetGroupCoverAction, Middlewares: editor},
		{Path: "POST /eventos/groups/{group}/cover/remove", HandlerFunc: eventosController.RemoveGroupCoverAction, Middlewares: editor},
		{Path: "POST /eventos/groups/{group}/delete", HandlerFunc: eventosController.RequestGroupDeleteAction, Middlewares: editor},
		{Path: "POST /eventos/groups/{group}/delete/confirm", HandlerFunc: eventosController.ConfirmDeleteAction, Middlewares: editor},
		{Path: "POST /eventos/groups/{group}/delete/cancel", HandlerFunc: eventosController.CancelDeleteAction, Middlewares: editor},

		{Path: "GET /eventos/{group}", HandlerFunc: eventosController.AlbumListPage, Middlewares: viewer},
		{Path: "POST /eventos/{group}/albums", HandlerFunc: eventosController.CreateAlbumAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/title", HandlerFunc: eventosController.UpdateAlbumTitleAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/cover", HandlerFunc: eventosController.SetAlbumCoverAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/cover/remove", HandlerFunc: eventosController.RemoveAlbumCoverAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/delete", HandlerFunc: eventosController.RequestAlbumDeleteAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/delete/confirm", HandlerFunc: eventosController.ConfirmDeleteAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/delete/cancel", HandlerFunc: eventosController.CancelDeleteAction, Middlewares: editor},

		{Path: "GET /eventos/{group}/{album}", HandlerFunc: eventosController.PhotoListPage, Middlewares: viewer},
		{Path: "POST /eventos/{group}/{album}/queue", HandlerFunc: eventosController.QueuePhotosAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/queue/{id}/remove", HandlerFunc: eventosController.RemoveQueuedPhotoAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/queue/clear", HandlerFunc: eventosController.ClearQueueAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/upload", HandlerFunc: eventosController.UploadAction, Middlewares: editor},
		{Path: "GET /eventos/{group}/{album}/upload/progress", HandlerFunc: eventosController.UploadProgress, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/photos/{name}/delete", HandlerFunc: eventosController.RequestPhotoDeleteAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/photos/{name}/delete/confirm", HandlerFunc: eventosController.ConfirmDeleteAction, Middlewares: editor},
		{Path: "POST /eventos/{group}/{album}/photos/{name}/delete/cancel", HandlerFunc: eventosController.CancelDeleteAction, Middlewares: editor},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     300,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the idle session cleanup job
	 */
	registry.StartCleanupRoutine(time.Minute)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)

	registry.Shutdown(context.Background())
	variantsService.Stop()

	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

/*
POST /sessao/encerrar
*/
func endSession(w http.ResponseWriter, r *http.Request) {
	if session, err := sessionService.Get(r); err == nil && session != "" {
		registry.Remove(r.Context(), session)
	}

	_ = sessionService.Destroy(w, r)
	_ = sessionService.Save(w, r)

	http.Redirect(w, r, "/eventos", http.StatusFound)
}
