package system

import (
	"image"
	"sync"
)

// ImagePool recycles *image.RGBA frames by size. Annotated frames of a
// multi-page source are usually all the same size, so each page after the
// first reuses a buffer instead of allocating one.
type ImagePool struct {
	pools sync.Map // image.Point (width, height) -> *sync.Pool
}

var framePool ImagePool

// GetImage returns a frame with the given bounds from the shared pool.
// Its pixels are undefined; callers overwrite every pixel.
func GetImage(rect image.Rectangle) *image.RGBA {
	return framePool.Get(rect)
}

// PutImage hands img back to the shared pool.
func PutImage(img *image.RGBA) {
	framePool.Put(img)
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	if v, ok := p.pools.Load(size); ok {
		return v.(*sync.Pool)
	}
	v, _ := p.pools.LoadOrStore(size, &sync.Pool{
		New: func() any {
			return image.NewRGBA(image.Rectangle{Max: size})
		},
	})
	return v.(*sync.Pool)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.pool(rect.Size()).Get().(*image.RGBA)
	img.Rect = rect
	return img
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	p.pool(img.Rect.Size()).Put(img)
}
