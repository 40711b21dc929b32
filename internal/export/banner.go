package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/model"
	"github.com/disintegration/imaging"
)

// Banner pixel size; 16:6 like the event hero image.
const (
	bannerWidth  = 1600
	bannerHeight = 600
)

// BannerSource supplies the poster image printed at the top of each stub.
type BannerSource interface {
	Banner(ctx context.Context, event model.Event) (image.Image, error)
}

// PosterBanner opens the event's poster from disk. Events without a poster,
// or whose poster cannot be opened, get a generated placeholder.
type PosterBanner struct {
	// OnFallback, when set, is told why a placeholder was used.
	OnFallback func(event model.Event, err error)
}

// Banner implements BannerSource.
func (p PosterBanner) Banner(ctx context.Context, event model.Event) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if event.PosterPath == "" {
		return placeholderBanner(), nil
	}
	img, err := imaging.Open(event.PosterPath, imaging.AutoOrientation(true))
	if err != nil {
		if p.OnFallback != nil {
			p.OnFallback(event, err)
		}
		return placeholderBanner(), nil
	}
	return img, nil
}

// placeholderBanner is a diagonal two-tone gradient.
func placeholderBanner() image.Image {
	img := imaging.New(bannerWidth, bannerHeight, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	for y := 0; y < bannerHeight; y++ {
		for x := 0; x < bannerWidth; x++ {
			v := uint8(120 + (x+y)*100/(bannerWidth+bannerHeight))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// encodeBanner crops to 16:6, converts to grayscale and encodes as JPEG.
func encodeBanner(img image.Image) ([]byte, error) {
	gray := imaging.Grayscale(imaging.Fill(img, bannerWidth, bannerHeight, imaging.Center, imaging.Lanczos))
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode banner: %w", err)
	}
	return buf.Bytes(), nil
}
