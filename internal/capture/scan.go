package capture

import (
	"context"
	"fmt"
	"io"
)

// Scan captures from the named device without serving it and writes one
// "src -> dst vlan id" line per tagged frame. It runs until ctx is done or
// the capture fails, and returns the number of lines written.
func Scan(ctx context.Context, src Source, name string, w io.Writer) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan Frame, 64)
	done := make(chan error, 1)
	go func() { done <- src.Capture(ctx, name, frames) }()

	n := 0
	emit := func(f Frame) error {
		if f.VLAN == 0 {
			return nil
		}
		if _, err := fmt.Fprintf(w, "%s -> %s vlan %d\n", f.Src, f.Dst, f.VLAN); err != nil {
			return err
		}
		n++
		return nil
	}

	for {
		select {
		case f := <-frames:
			if err := emit(f); err != nil {
				return n, err
			}
		case err := <-done:
			// Flush what the capture queued before it stopped.
			for {
				select {
				case f := <-frames:
					if werr := emit(f); werr != nil {
						return n, werr
					}
				default:
					return n, err
				}
			}
		}
	}
}
