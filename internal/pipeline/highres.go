package pipeline

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"gallery-streamer/internal/media"
)

// HighResRequest is a snapshot of what promotion needs from an item.
type HighResRequest struct {
	ID             string
	SourceURL      string
	MaxTextureSize int
}

// TileImage is one slice of a full-resolution image. The offsets and
// scales are fractions of the parent box.
type TileImage struct {
	Image   *image.NRGBA
	Col     int
	Row     int
	OffsetX float64
	OffsetY float64
	ScaleX  float64
	ScaleY  float64
}

// HighResResult carries a single image or, when the source exceeds the
// maximum texture size, a tile grid.
type HighResResult struct {
	Image  image.Image
	Tiles  []TileImage
	Width  int
	Height int
	Err    error
}

// ResolveHighRes downloads and decodes the full source. Sources wider or
// taller than MaxTextureSize are sliced into tiles.
func (p *Pipeline) ResolveHighRes(ctx context.Context, req HighResRequest) HighResResult {
	data, err := p.fetcher.Fetch(ctx, req.SourceURL)
	if err != nil {
		return HighResResult{Err: err}
	}
	img, err := media.Decode(data, req.SourceURL)
	if err != nil {
		return HighResResult{Err: err}
	}

	b := img.Bounds()
	res := HighResResult{Width: b.Dx(), Height: b.Dy()}
	if req.MaxTextureSize <= 0 || (b.Dx() <= req.MaxTextureSize && b.Dy() <= req.MaxTextureSize) {
		res.Image = img
		return res
	}

	tiles, err := SliceTiles(ctx, img, req.MaxTextureSize, p.config.TileWorkers)
	if err != nil {
		return HighResResult{Err: err}
	}
	p.log.Debug("%s: %dx%d sliced into %d tiles", req.ID, b.Dx(), b.Dy(), len(tiles))
	res.Tiles = tiles
	return res
}

// TileGrid returns the number of columns and rows needed so that no tile
// of a width×height image exceeds maxSize in either dimension.
func TileGrid(width, height, maxSize int) (cols, rows int) {
	if maxSize <= 0 {
		return 1, 1
	}
	return max((width+maxSize-1)/maxSize, 1), max((height+maxSize-1)/maxSize, 1)
}

// SliceTiles cuts img into an evenly sized grid of tiles, each at most
// maxSize on a side. Tiles are cropped in parallel, at most workers at a
// time, and returned in row-major order.
func SliceTiles(ctx context.Context, img image.Image, maxSize, workers int) ([]TileImage, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cols, rows := TileGrid(w, h, maxSize)
	tileW := (w + cols - 1) / cols
	tileH := (h + rows - 1) / rows

	tiles := make([]TileImage, cols*rows)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x0, y0 := col*tileW, row*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			idx := row*cols + col

			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				r := image.Rect(b.Min.X+x0, b.Min.Y+y0, b.Min.X+x1, b.Min.Y+y1)
				tiles[idx] = TileImage{
					Image:   media.Crop(img, r),
					Col:     col,
					Row:     row,
					OffsetX: float64(x0) / float64(w),
					OffsetY: float64(y0) / float64(h),
					ScaleX:  float64(x1-x0) / float64(w),
					ScaleY:  float64(y1-y0) / float64(h),
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}
