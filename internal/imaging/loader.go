package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/ironsheep/card-scanner/internal/failure"
)

// Decode decodes raw PNG, JPEG or GIF bytes into an image.
//
// It returns the decoded image and the format name reported by the registered
// decoder ("png", "jpeg" or "gif"). Empty input, unknown formats and corrupt
// data all fail with a failure.InvalidImage error, as does an image that
// decodes to zero pixels.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", failure.New(failure.InvalidImage, "empty image data", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", failure.New(failure.InvalidImage, "failed to decode image", err)
	}

	if img.Bounds().Empty() {
		return nil, "", failure.New(failure.InvalidImage, "image has no pixels", nil).
			With("format", format)
	}

	return img, format, nil
}

// ImageCache provides thread-safe caching of images loaded from disk.
//
// The MCP tools address images by path and usually run several tools against
// the same photo, so decoded images are kept keyed by the exact path string.
// Cached images remain in memory until Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path, reading and decoding it on a miss.
//
// A missing file is reported as a plain wrapped os error; a file that exists
// but cannot be decoded is reported as a failure.InvalidImage error.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, _, err := Decode(data)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			fe.With("path", path)
		}
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a single path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
