package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
)

const (
	DefaultCoverWidth   = 1200
	DefaultCoverHeight  = 800
	DefaultCoverQuality = 0.86
)

var (
	ErrEmptyImage = errors.New("image source is empty")
)

type ImageVariantGenerator interface {
	Generate(ctx context.Context, r io.Reader) (CoverVariantPair, error)
}

/*
CoverVariantPair holds the JPEG-encoded standard (1x) and double density (2x)
renditions of one cover source.
*/
type CoverVariantPair struct {
	Standard    []byte
	HighDensity []byte
}

type ImageVariantServiceConfig struct {
	Width      int
	Height     int
	Quality    float64
	MaxWorkers int
}

type ImageVariantService struct {
	width   uint
	height  uint
	quality int
	pool    pond.Pool
}

/*
NewImageVariantService returns a generator for fixed-size cover variants.
Width and Height describe the 1x rendition; the 2x rendition doubles both.
Quality is a fraction in (0, 1].
*/
func NewImageVariantService(config ImageVariantServiceConfig) ImageVariantService {
	if config.Width <= 0 || config.Height <= 0 {
		config.Width = DefaultCoverWidth
		config.Height = DefaultCoverHeight
	}

	if config.Quality <= 0 || config.Quality > 1 {
		config.Quality = DefaultCoverQuality
	}

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 2
	}

	return ImageVariantService{
		width:   uint(config.Width),
		height:  uint(config.Height),
		quality: int(math.Round(config.Quality * 100)),
		pool:    pond.NewPool(config.MaxWorkers),
	}
}

func (s ImageVariantService) Generate(ctx context.Context, r io.Reader) (CoverVariantPair, error) {
	var (
		err    error
		source []byte
		img    image.Image
		result CoverVariantPair
	)

	if err = ctx.Err(); err != nil {
		return result, err
	}

	if source, err = io.ReadAll(r); err != nil {
		return result, fmt.Errorf("error reading cover source: %w", err)
	}

	if len(source) == 0 {
		return result, &DecodeError{Err: ErrEmptyImage}
	}

	detected := mimetype.Detect(source).String()

	if !strings.HasPrefix(detected, "image/") {
		return result, &DecodeError{ContentType: detected, Err: fmt.Errorf("content is not an image")}
	}

	if img, err = imaging.Decode(bytes.NewReader(source), imaging.AutoOrientation(true)); err != nil {
		return result, &DecodeError{ContentType: detected, Err: err}
	}

	cropped := s.cropToAspect(img)

	standard := s.pool.SubmitErr(func() error {
		var encodeErr error
		result.Standard, encodeErr = s.encodeVariant(cropped, s.width, s.height)
		return encodeErr
	})

	highDensity := s.pool.SubmitErr(func() error {
		var encodeErr error
		result.HighDensity, encodeErr = s.encodeVariant(cropped, s.width*2, s.height*2)
		return encodeErr
	})

	for _, task := range []pond.Task{standard, highDensity} {
		select {
		case <-ctx.Done():
			return CoverVariantPair{}, ctx.Err()

		case <-task.Done():
			if err = task.Wait(); err != nil {
				return CoverVariantPair{}, err
			}
		}
	}

	slog.Debug("generated cover variants", "sourceType", detected, "standardBytes", len(result.Standard), "highDensityBytes", len(result.HighDensity))
	return result, nil
}

/*
Stop waits for running variant jobs and releases the worker pool.
*/
func (s ImageVariantService) Stop() {
	_ = s.pool.Stop().Wait()
}

/*
cropToAspect center-crops the source to the target aspect ratio so the
resample never distorts.
*/
func (s ImageVariantService) cropToAspect(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	targetRatio := float64(s.width) / float64(s.height)
	srcRatio := float64(srcWidth) / float64(srcHeight)

	cropWidth := srcWidth
	cropHeight := srcHeight

	if srcRatio > targetRatio {
		cropWidth = int(math.Round(float64(srcHeight) * targetRatio))
	} else if srcRatio < targetRatio {
		cropHeight = int(math.Round(float64(srcWidth) / targetRatio))
	}

	if cropWidth < 1 {
		cropWidth = 1
	}

	if cropHeight < 1 {
		cropHeight = 1
	}

	return imaging.CropCenter(img, cropWidth, cropHeight)
}

func (s ImageVariantService) encodeVariant(img image.Image, width, height uint) ([]byte, error) {
	var (
		buf bytes.Buffer
	)

	resized := resize.Resize(width, height, img, resize.Lanczos3)

	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("error encoding %dx%d cover variant: %w", width, height, err)
	}

	return buf.Bytes(), nil
}
