// Package screenshot sequences hide, capture, persist and show for the
// overlay, and routes captures into the queue selected by the current view.
package screenshot

import "time"

const (
	// Hamming distance at or below which two captures count as duplicates.
	MaxHashDistance = 5

	// DefaultShowDelay is the wait between persisting and re-showing.
	DefaultShowDelay = 200 * time.Millisecond

	previewPrefix = "data:image/png;base64,"
)
