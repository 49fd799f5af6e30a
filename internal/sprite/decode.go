package sprite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
)

// HDVersion is the only sprite revision that carries raw RGBA frames.
const HDVersion = 31

const (
	offVersion    = 0x04
	offFrameWidth = 0x06
	offWidth      = 0x08
	offHeight     = 0x0C
	offFrames     = 0x14
	offPixels     = 0x28
)

var (
	ErrHeader    = errors.New("sprite: short header")
	ErrVersion   = errors.New("sprite: unsupported version")
	ErrTruncated = errors.New("sprite: truncated pixel data")
)

type Header struct {
	Version    uint16
	FrameWidth int
	Width      int
	Height     int
	Frames     int
}

func ParseHeader(data []byte) (Header, error) {
	if len(data) < offPixels {
		return Header{}, ErrHeader
	}
	return Header{
		Version:    binary.LittleEndian.Uint16(data[offVersion:]),
		FrameWidth: int(binary.LittleEndian.Uint16(data[offFrameWidth:])),
		Width:      int(binary.LittleEndian.Uint32(data[offWidth:])),
		Height:     int(binary.LittleEndian.Uint32(data[offHeight:])),
		Frames:     int(binary.LittleEndian.Uint32(data[offFrames:])),
	}, nil
}

// Decode splits an HD sprite sheet into its frames. Frames are laid out side
// by side; frame i starts at column (Width/Frames)*i.
func Decode(data []byte) ([]*image.NRGBA, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Version != HDVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Frames <= 0 || h.Width <= 0 || h.Height <= 0 || h.FrameWidth <= 0 {
		return nil, fmt.Errorf("%w: %dx%d, %d frames", ErrHeader, h.Width, h.Height, h.Frames)
	}
	// Every frame must start on its own column and the last one must fit the sheet.
	if h.Frames > h.Width || (h.Width/h.Frames)*(h.Frames-1)+h.FrameWidth > h.Width {
		return nil, fmt.Errorf("%w: %d frames of width %d on a %d wide sheet", ErrHeader, h.Frames, h.FrameWidth, h.Width)
	}

	stride := h.Width * 4
	if int64(len(data)-offPixels) < int64(stride)*int64(h.Height) {
		return nil, ErrTruncated
	}
	pixels := data[offPixels:]
	frameOff := h.Width / h.Frames

	frames := make([]*image.NRGBA, 0, h.Frames)
	for f := 0; f < h.Frames; f++ {
		img := image.NewNRGBA(image.Rect(0, 0, h.FrameWidth, h.Height))
		startX := frameOff * f
		for y := 0; y < h.Height; y++ {
			for x := 0; x < h.FrameWidth; x++ {
				xx := startX + x
				if xx >= h.Width {
					break
				}
				src := y*stride + xx*4
				copy(img.Pix[y*img.Stride+x*4:y*img.Stride+x*4+4], pixels[src:src+4])
			}
		}
		frames = append(frames, img)
	}
	return frames, nil
}
