package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/PedroOrnelasPego/minas-bahia-sub000/pkg/services"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type UploadStatus string

const (
	StatusQueued    UploadStatus = "queued"
	StatusUploading UploadStatus = "uploading"
	StatusDone      UploadStatus = "done"
	StatusError     UploadStatus = "error"
)

type PendingUpload struct {
	ID         string
	File       services.UploadFile
	PreviewURL string
	Status     UploadStatus
	Err        error
}

/*
AddResult reports what happened to a selection. Ignored counts the files
dropped because the queue was full, Rejected the ones that are not images.
*/
type AddResult struct {
	Added    []PendingUpload
	Ignored  int
	Rejected int
}

type Progress struct {
	Completed int
	Total     int
	Percent   int
}

type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	FailedIDs []string
}

/*
UploadQueue holds the photos picked for one album until they are sent. Files
are sent one at a time so each one's status can be followed on its own.
*/
type UploadQueue struct {
	controller *Controller
	group      string
	album      string
	limit      int

	mu       sync.Mutex
	items    []*PendingUpload
	sending  bool
	progress Progress
}

func newUploadQueue(c *Controller, group, album string) *UploadQueue {
	return &UploadQueue{
		controller: c,
		group:      group,
		album:      album,
		limit:      c.maxUploadBatch,
		items:      []*PendingUpload{},
	}
}

/*
Add queues files up to the remaining capacity. Files over the capacity are
counted as ignored, never as an error.
*/
func (q *UploadQueue) Add(files []services.UploadFile) AddResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := AddResult{
		Added: []PendingUpload{},
	}

	for _, file := range files {
		if file.ContentType == "" {
			file.ContentType = mimetype.Detect(file.Data).String()
		}

		if !strings.HasPrefix(file.ContentType, "image/") {
			result.Rejected++
			continue
		}

		if len(q.items) >= q.limit {
			result.Ignored++
			continue
		}

		item := &PendingUpload{
			ID:         uuid.NewString(),
			File:       file,
			PreviewURL: q.controller.previews.Create(file.ContentType, file.Data),
			Status:     StatusQueued,
		}

		q.items = append(q.items, item)
		result.Added = append(result.Added, *item)
	}

	if result.Ignored > 0 {
		slog.Info("upload selection truncated", "group", q.group, "album", q.album, "ignored", result.Ignored, "limit", q.limit)
	}

	return result
}

func (q *UploadQueue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sending {
		return ErrUploadInProgress
	}

	for index, item := range q.items {
		if item.ID == id {
			q.controller.previews.Revoke(item.PreviewURL)
			q.items = append(q.items[:index], q.items[index+1:]...)
			return nil
		}
	}

	return nil
}

func (q *UploadQueue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sending {
		return ErrUploadInProgress
	}

	q.revokeLocked()
	q.progress = Progress{}

	return nil
}

func (q *UploadQueue) Items() []PendingUpload {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]PendingUpload, 0, len(q.items))

	for _, item := range q.items {
		result = append(result, *item)
	}

	return result
}

/*
Limit is how many files the queue holds at most.
*/
func (q *UploadQueue) Limit() int {
	return q.limit
}

func (q *UploadQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.limit - len(q.items)
}

func (q *UploadQueue) Sending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.sending
}

func (q *UploadQueue) Progress() Progress {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.progress
}

/*
Send uploads every queued or previously failed file, one request per file.
A failed file does not stop the batch. Sent files leave the queue and their
previews are released; failed ones stay for a retry and the batch returns a
*PartialBatchFailure. onProgress, when given, is called after every attempt.
*/
func (q *UploadQueue) Send(ctx context.Context, onProgress func(Progress)) (BatchResult, error) {
	var (
		err    error
		result BatchResult
		batch  []*PendingUpload
	)

	q.mu.Lock()

	if q.sending {
		q.mu.Unlock()
		return result, ErrUploadInProgress
	}

	for _, item := range q.items {
		if item.Status == StatusQueued || item.Status == StatusError {
			batch = append(batch, item)
		}
	}

	if len(batch) == 0 {
		q.mu.Unlock()
		return result, nil
	}

	q.sending = true
	result.Total = len(batch)
	q.progress = Progress{Total: result.Total}

	q.mu.Unlock()

	slog.Info("starting photo upload batch", "group", q.group, "album", q.album, "files", result.Total)

	for index, item := range batch {
		if err = ctx.Err(); err != nil {
			break
		}

		q.mu.Lock()
		item.Status = StatusUploading
		item.Err = nil
		file := item.File
		q.mu.Unlock()

		_, uploadErr := q.controller.client.UploadPhotos(ctx, q.group, q.album, []services.UploadFile{file})

		q.mu.Lock()

		if uploadErr != nil {
			item.Status = StatusError
			item.Err = uploadErr
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, item.ID)

			slog.Error("error uploading photo", "group", q.group, "album", q.album, "file", file.Name, "error", uploadErr)
		} else {
			item.Status = StatusDone
			result.Succeeded++
		}

		completed := index + 1
		q.progress = Progress{
			Completed: completed,
			Total:     result.Total,
			Percent:   int(math.Round(float64(completed) / float64(result.Total) * 100)),
		}
		progress := q.progress

		q.mu.Unlock()

		if onProgress != nil {
			onProgress(progress)
		}
	}

	q.mu.Lock()

	for _, item := range batch {
		if item.Status == StatusUploading {
			item.Status = StatusQueued
		}
	}

	q.purgeDoneLocked()
	q.sending = false

	q.mu.Unlock()

	if result.Succeeded > 0 {
		if refreshErr := q.controller.LoadPhotos(context.WithoutCancel(ctx), q.group, q.album).Wait(); refreshErr != nil {
			slog.Error("error refreshing photos after upload", "group", q.group, "album", q.album, "error", refreshErr)
		}
	}

	if err != nil {
		return result, fmt.Errorf("upload batch interrupted after %d of %d files: %w", result.Succeeded+result.Failed, result.Total, err)
	}

	if result.Failed > 0 {
		return result, &PartialBatchFailure{Failed: result.Failed, Total: result.Total}
	}

	slog.Info("photo upload batch finished", "group", q.group, "album", q.album, "files", result.Total)
	return result, nil
}

func (q *UploadQueue) purgeDoneLocked() {
	kept := make([]*PendingUpload, 0, len(q.items))

	for _, item := range q.items {
		if item.Status == StatusDone {
			q.controller.previews.Revoke(item.PreviewURL)
			continue
		}

		kept = append(kept, item)
	}

	q.items = kept
}

func (q *UploadQueue) revokeLocked() {
	for _, item := range q.items {
		q.controller.previews.Revoke(item.PreviewURL)
	}

	q.items = []*PendingUpload{}
}

func (q *UploadQueue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.revokeLocked()
}

/*
IsPartialFailure reports whether err is a batch that completed with some
failed files.
*/
func IsPartialFailure(err error) bool {
	var partial *PartialBatchFailure
	return errors.As(err, &partial)
}
