// Package typing produces the incremental text slices behind the typing animation.
package typing

import (
	"context"
	"time"
)

// DefaultInterval matches the front-end animation speed.
const DefaultInterval = 30 * time.Millisecond

// Options controls the pace of a stream.
type Options struct {
	// Interval is the pause between slices. Zero emits without pausing.
	Interval time.Duration
	// Chunk is the number of runes added per slice; values below 1 mean 1.
	Chunk int
}

// Slice is one step of the animation.
type Slice struct {
	// Delta is the text added by this slice.
	Delta string
	// Text is everything revealed so far.
	Text string
	// Done marks the slice that completes the text.
	Done bool
}

// Stream reveals text a few runes at a time. The channel is closed once the
// whole text was sent or ctx is done, whichever comes first.
func Stream(ctx context.Context, text string, opts Options) <-chan Slice {
	out := make(chan Slice)
	chunk := opts.Chunk
	if chunk < 1 {
		chunk = 1
	}

	go func() {
		defer close(out)

		runes := []rune(text)
		if len(runes) == 0 {
			select {
			case out <- Slice{Done: true}:
			case <-ctx.Done():
			}
			return
		}

		var tick <-chan time.Time
		if opts.Interval > 0 {
			ticker := time.NewTicker(opts.Interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for end := 0; end < len(runes); {
			start := end
			end += chunk
			if end > len(runes) {
				end = len(runes)
			}
			slice := Slice{
				Delta: string(runes[start:end]),
				Text:  string(runes[:end]),
				Done:  end == len(runes),
			}

			select {
			case out <- slice:
			case <-ctx.Done():
				return
			}
			if slice.Done || tick == nil {
				continue
			}
			select {
			case <-tick:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Collect drains a stream and returns the last revealed text.
func Collect(slices <-chan Slice) (string, int) {
	var text string
	count := 0
	for s := range slices {
		text = s.Text
		count++
	}
	return text, count
}
