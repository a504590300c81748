package hitmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"isoclient/internal/logger"
	"isoclient/internal/threading/core"
)

// SidecarExt is the extension of serialized bitmaps written next to their image.
const SidecarExt = ".hitmap"

// ErrUnsupportedSource is returned for sources that cannot be rasterized.
var ErrUnsupportedSource = errors.New("unsupported image source")

type entry struct {
	once   sync.Once
	bitmap *Bitmap
}

// Cache memoizes bitmaps per source key. Every key is built at most once,
// including failed builds, which stay transparent.
type Cache struct {
	mu        sync.Mutex
	threshold uint8
	entries   map[string]*entry
	log       *logrus.Entry
}

// NewCache creates a cache that builds bitmaps with the given alpha threshold.
func NewCache(threshold uint8) *Cache {
	return &Cache{
		threshold: threshold,
		entries:   make(map[string]*entry),
		log:       logger.WithComponent("hitmap"),
	}
}

// Get returns the bitmap for key, building it from src on first use.
//
// src may be a *Bitmap (precomputed), an image.Image, encoded image bytes,
// an io.Reader of encoded image data, or a file path; a path with a
// sidecar next to it loads the sidecar instead of decoding the image.
// Anything else is logged and yields nil, which every hit test treats as
// fully transparent.
func (c *Cache) Get(key string, src any) *Bitmap {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		bm, err := c.build(src)
		if err != nil {
			c.log.WithError(err).WithField("source", key).Warn("Hit map unavailable, texture is not pickable")
			return
		}
		c.log.WithFields(logrus.Fields{
			"source": key,
			"width":  bm.Width,
			"height": bm.Height,
		}).Debug("Built hit map")
		e.bitmap = bm
	})
	return e.bitmap
}

// Len returns how many sources have been requested.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Preload builds every source on the worker pool ahead of the first pick.
func (c *Cache) Preload(ctx context.Context, pool *core.WorkerPool, sources map[string]any) error {
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return pool.ParallelForWithContext(ctx, 0, len(keys), func(i int) {
		c.Get(keys[i], sources[keys[i]])
	})
}

func (c *Cache) build(src any) (*Bitmap, error) {
	switch s := src.(type) {
	case *Bitmap:
		if s == nil {
			return nil, fmt.Errorf("%w: nil bitmap", ErrUnsupportedSource)
		}
		return s, nil
	case image.Image:
		return Build(s, c.threshold), nil
	case []byte:
		return c.decode(bytes.NewReader(s))
	case io.Reader:
		return c.decode(s)
	case string:
		return c.loadPath(s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
	}
}

func (c *Cache) decode(r io.Reader) (*Bitmap, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return Build(img, c.threshold), nil
}

func (c *Cache) loadPath(path string) (*Bitmap, error) {
	sidecar := SidecarPath(path)
	if _, err := os.Stat(sidecar); err == nil {
		return Load(sidecar)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()
	return c.decode(file)
}

// SidecarPath returns where the serialized bitmap for an image lives.
func SidecarPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return imagePath[:len(imagePath)-len(ext)] + SidecarExt
}
