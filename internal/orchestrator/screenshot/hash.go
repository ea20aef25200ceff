package screenshot

import (
	"bytes"
	"image"
	_ "image/png" // PNG decoder
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"
)

// hashes remembers the perceptual hash of the newest capture per view.
type hashes struct {
	mu   sync.Mutex
	last map[View]*goimagehash.ImageHash
}

// observe hashes data and reports whether it is perceptually identical to
// the previous capture in the same view. Undecodable input is never a
// duplicate.
func (h *hashes) observe(view View, data []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		h.last = make(map[View]*goimagehash.ImageHash)
	}
	prev := h.last[view]
	h.last[view] = hash
	if prev == nil {
		return false
	}

	dist, err := prev.Distance(hash)
	if err != nil {
		return false
	}
	if dist <= MaxHashDistance {
		slog.Debug("capture matches previous", "view", view, "distance", dist)
		return true
	}
	return false
}

func (h *hashes) forget(views ...View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range views {
		delete(h.last, v)
	}
}
