package gallery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/models"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/sessioncache"
)

const (
	DefaultRetryAttempts  = 3
	DefaultRetryBackoff   = 400 * time.Millisecond
	DefaultMaxUploadBatch = services.MaxPhotosPerUpload
)

type ControllerConfig struct {
	Client         services.GalleryServicer
	Variants       services.ImageVariantGenerator
	Cache          *sessioncache.Cache
	Previews       *PreviewStore
	RetryAttempts  int
	RetryBackoff   time.Duration
	MaxUploadBatch int
	Now            func() time.Time
}

/*
Controller is the gallery state of one browser session: listings painted
from the session cache and reconciled with the backend, the pending delete
confirmations and the upload queues. All methods are safe for concurrent use.
*/
type Controller struct {
	client         services.GalleryServicer
	variants       services.ImageVariantGenerator
	cache          *sessioncache.Cache
	previews       *PreviewStore
	retryAttempts  int
	retryBackoff   time.Duration
	maxUploadBatch int
	now            func() time.Time

	baseCtx  context.Context
	shutdown context.CancelFunc

	mu             sync.Mutex
	groups         *listing[models.Group]
	albums         map[string]*listing[models.Album]
	photos         map[string]*listing[models.Photo]
	queues         map[string]*UploadQueue
	pendingDeletes map[string]Confirmation
	lastVersion    int64
}

func NewController(config ControllerConfig) *Controller {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = DefaultRetryAttempts
	}

	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}

	if config.MaxUploadBatch <= 0 {
		config.MaxUploadBatch = DefaultMaxUploadBatch
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if config.Previews == nil {
		config.Previews = NewPreviewStore("")
	}

	if config.Cache == nil {
		config.Cache = sessioncache.New(sessioncache.NewMemoryStore(), "")
	}

	baseCtx, shutdown := context.WithCancel(context.Background())

	return &Controller{
		client:         config.Client,
		variants:       config.Variants,
		cache:          config.Cache,
		previews:       config.Previews,
		retryAttempts:  config.RetryAttempts,
		retryBackoff:   config.RetryBackoff,
		maxUploadBatch: config.MaxUploadBatch,
		now:            config.Now,
		baseCtx:        baseCtx,
		shutdown:       shutdown,
		groups:         &listing[models.Group]{},
		albums:         map[string]*listing[models.Album]{},
		photos:         map[string]*listing[models.Photo]{},
		queues:         map[string]*UploadQueue{},
		pendingDeletes: map[string]Confirmation{},
	}
}

func (c *Controller) Previews() *PreviewStore {
	return c.previews
}

/*
Queue returns the upload queue of an album, creating it on first use.
*/
func (c *Controller) Queue(group, album string) *UploadQueue {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := sessioncache.PhotosKey(group, album)

	queue, ok := c.queues[key]
	if !ok {
		queue = newUploadQueue(c, group, album)
		c.queues[key] = queue
	}

	return queue
}

/*
Teardown ends the session: in-flight fetches are cancelled, every pending
preview is released and the session cache is cleared.
*/
func (c *Controller) Teardown(ctx context.Context) {
	c.shutdown()

	c.mu.Lock()
	queues := make([]*UploadQueue, 0, len(c.queues))

	for _, queue := range c.queues {
		queues = append(queues, queue)
	}

	c.queues = map[string]*UploadQueue{}
	c.pendingDeletes = map[string]Confirmation{}
	c.mu.Unlock()

	for _, queue := range queues {
		queue.release()
	}

	if err := c.cache.Clear(ctx); err != nil {
		slog.Error("error clearing session cache on teardown", "session", c.cache.Session(), "error", err)
	}
}

func (c *Controller) albumListing(group string) *listing[models.Album] {
	l, ok := c.albums[group]
	if !ok {
		l = &listing[models.Album]{}
		c.albums[group] = l
	}

	return l
}

func (c *Controller) photoListing(group, album string) *listing[models.Photo] {
	key := sessioncache.PhotosKey(group, album)

	l, ok := c.photos[key]
	if !ok {
		l = &listing[models.Photo]{}
		c.photos[key] = l
	}

	return l
}

/*
nextVersion returns a millisecond timestamp that is strictly greater than
any previously returned one, used as a cache-busting token on cover URLs.
*/
func (c *Controller) nextVersion() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	version := c.now().UnixMilli()

	if version <= c.lastVersion {
		version = c.lastVersion + 1
	}

	c.lastVersion = version
	return version
}
