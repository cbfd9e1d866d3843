// Package capture keeps the latest sensor color frame and converts it with GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/kinectkeys/internal/skeleton"
)

// Default color stream settings
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	BytesPerPixel = 4 // BGRA
)

// ErrEmptyFrame is returned when a color frame carries no pixel data.
var ErrEmptyFrame = errors.New("color frame has no data")

// ErrNoColorFrame is returned when no color frame has been copied yet.
var ErrNoColorFrame = errors.New("no color frame captured")

// ColorBuffer holds a copy of the most recent BGRA color frame.
type ColorBuffer struct {
	mu      sync.RWMutex
	width   int
	height  int
	pixels  []byte
	stamp   time.Time
	frames  uint64
	hasData bool
}

// NewColorBuffer creates a buffer sized for width x height BGRA pixels.
func NewColorBuffer(width, height int) *ColorBuffer {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	return &ColorBuffer{
		width:  width,
		height: height,
		pixels: make([]byte, width*height*BytesPerPixel),
	}
}

// Copy copies frame into the buffer row by row, dropping any row padding.
// Frames with a zero pitch are rejected with ErrEmptyFrame and leave the
// buffer untouched.
func (b *ColorBuffer) Copy(frame *skeleton.ColorFrame) error {
	if frame == nil || frame.Pitch == 0 {
		return ErrEmptyFrame
	}

	rowBytes := frame.Width * BytesPerPixel
	if frame.Width <= 0 || frame.Height <= 0 || frame.Pitch < rowBytes {
		return fmt.Errorf("invalid color frame %dx%d pitch %d", frame.Width, frame.Height, frame.Pitch)
	}
	if need := frame.Pitch*(frame.Height-1) + rowBytes; len(frame.Pixels) < need {
		return fmt.Errorf("color frame too short: %d bytes, need %d", len(frame.Pixels), need)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if frame.Width != b.width || frame.Height != b.height {
		b.width = frame.Width
		b.height = frame.Height
		b.pixels = make([]byte, rowBytes*frame.Height)
	}

	for y := 0; y < frame.Height; y++ {
		src := frame.Pixels[y*frame.Pitch : y*frame.Pitch+rowBytes]
		copy(b.pixels[y*rowBytes:], src)
	}

	b.stamp = frame.Timestamp
	if b.stamp.IsZero() {
		b.stamp = time.Now()
	}
	b.frames++
	b.hasData = true
	return nil
}

// HasFrame reports whether at least one frame has been copied.
func (b *ColorBuffer) HasFrame() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasData
}

// Frames returns how many frames have been copied.
func (b *ColorBuffer) Frames() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frames
}

// Size returns the current frame dimensions.
func (b *ColorBuffer) Size() (width, height int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}

// Timestamp returns the time of the latest frame.
func (b *ColorBuffer) Timestamp() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stamp
}

// Pixels returns a copy of the BGRA pixel data.
func (b *ColorBuffer) Pixels() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.pixels))
	copy(out, b.pixels)
	return out
}

// Mat returns the latest frame as a BGR Mat.
// The caller is responsible for closing the returned Mat.
func (b *ColorBuffer) Mat() (gocv.Mat, error) {
	b.mu.RLock()
	if !b.hasData {
		b.mu.RUnlock()
		return gocv.NewMat(), ErrNoColorFrame
	}
	width, height := b.width, b.height
	pix := make([]byte, len(b.pixels))
	copy(pix, b.pixels)
	b.mu.RUnlock()

	bgra, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap color frame: %w", err)
	}
	defer bgra.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(bgra, &bgr, gocv.ColorBGRAToBGR)
	runtime.KeepAlive(pix)

	if bgr.Empty() {
		bgr.Close()
		return gocv.NewMat(), errors.New("color conversion produced an empty frame")
	}
	return bgr, nil
}

// JPEG encodes the latest frame as JPEG.
func (b *ColorBuffer) JPEG() ([]byte, error) {
	mat, err := b.Mat()
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// TestPattern returns a BGRA color frame with a horizontal gradient whose
// phase moves with seq. Mock sensors use it to feed the color stream.
func TestPattern(width, height int, seq int64) *skeleton.ColorFrame {
	pitch := width * BytesPerPixel
	pix := make([]byte, pitch*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*pitch + x*BytesPerPixel
			// BGRA
			pix[i] = byte(x + int(seq))
			pix[i+1] = byte(y)
			pix[i+2] = byte(255 - x&0xff)
			pix[i+3] = 0xff
		}
	}
	return &skeleton.ColorFrame{
		Width:     width,
		Height:    height,
		Pitch:     pitch,
		Pixels:    pix,
		Timestamp: time.Now(),
	}
}
