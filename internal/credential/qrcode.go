package credential

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// QRRenderer turns a provisioning URI into an image.
type QRRenderer interface {
	Render(ctx context.Context, content string, size int) ([]byte, error)
}

// PNGRenderer renders square PNG QR codes with medium error correction.
type PNGRenderer struct{}

func (PNGRenderer) Render(_ context.Context, content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scaling qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

type renderResult struct {
	image []byte
	err   error
}

// renderWithTimeout bounds a renderer call and converts a renderer panic into
// an error.
func renderWithTimeout(ctx context.Context, renderer QRRenderer, content string, size int, timeout time.Duration) ([]byte, error) {
	if renderer == nil {
		renderer = PNGRenderer{}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan renderResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- renderResult{err: fmt.Errorf("renderer panicked: %v", r)}
			}
		}()
		image, err := renderer.Render(ctx, content, size)
		done <- renderResult{image: image, err: err}
	}()

	select {
	case res := <-done:
		return res.image, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrRendererTimeout
		}
		return nil, ctx.Err()
	}
}
