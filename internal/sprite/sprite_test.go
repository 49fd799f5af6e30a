package sprite

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/teamcutter/d2rdump/internal/console"
)

// buildSprite returns a sheet whose pixel at (x, y) is {x, y, version, 255}.
func buildSprite(version uint16, frameW, width, height, frames int) []byte {
	data := make([]byte, offPixels+width*height*4)
	copy(data, "SpA1")
	binary.LittleEndian.PutUint16(data[offVersion:], version)
	binary.LittleEndian.PutUint16(data[offFrameWidth:], uint16(frameW))
	binary.LittleEndian.PutUint32(data[offWidth:], uint32(width))
	binary.LittleEndian.PutUint32(data[offHeight:], uint32(height))
	binary.LittleEndian.PutUint32(data[offFrames:], uint32(frames))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := offPixels + (y*width+x)*4
			copy(data[i:], []byte{byte(x), byte(y), byte(version), 255})
		}
	}
	return data
}

func TestDecodeFrames(t *testing.T) {
	frames, err := Decode(buildSprite(HDVersion, 2, 4, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}

	b := frames[1].Bounds()
	if b.Dx() != 2 || b.Dy() != 3 {
		t.Errorf("frame bounds = %v", b)
	}
	got := frames[1].NRGBAAt(1, 2)
	want := color.NRGBA{R: 3, G: 2, B: HDVersion, A: 255}
	if got != want {
		t.Errorf("frame 1 pixel (1,2) = %v, want %v", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte("short")); !errors.Is(err, ErrHeader) {
		t.Errorf("short: %v", err)
	}
	if _, err := Decode(buildSprite(30, 2, 4, 2, 2)); !errors.Is(err, ErrVersion) {
		t.Errorf("version: %v", err)
	}
	full := buildSprite(HDVersion, 2, 4, 2, 2)
	if _, err := Decode(full[:len(full)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated: %v", err)
	}
	if _, err := Decode(buildSprite(HDVersion, 2, 4, 2, 0)); !errors.Is(err, ErrHeader) {
		t.Errorf("zero frames: %v", err)
	}

	huge := buildSprite(HDVersion, 2, 4, 2, 2)
	binary.LittleEndian.PutUint32(huge[offFrames:], 0x7fffffff)
	if _, err := Decode(huge); !errors.Is(err, ErrHeader) {
		t.Errorf("frame count beyond sheet width: %v", err)
	}
	if _, err := Decode(buildSprite(HDVersion, 3, 4, 2, 2)); !errors.Is(err, ErrHeader) {
		t.Errorf("last frame past sheet edge: %v", err)
	}
}

func TestConvert(t *testing.T) {
	base := t.TempDir()
	in := filepath.Join(base, "1_0_0", "sprite")
	out := filepath.Join(base, "1_0_0_png")

	files := map[string][]byte{
		"ui/panel/a.sprite":  buildSprite(HDVersion, 2, 4, 2, 2),
		"ui/old.sprite":      buildSprite(30, 2, 4, 2, 2),
		"ui/a_lowend.sprite": buildSprite(HDVersion, 2, 4, 2, 2),
		"ui/broken.sprite":   []byte("xx"),
		"ui/readme.txt":      []byte("not a sprite"),
	}
	for name, data := range files {
		p := filepath.Join(in, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	var stdout, stderr bytes.Buffer
	cv := NewConverter(in, out, 2, console.New(&stdout, &stderr))
	stats, err := cv.Convert(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if stats.Found != 4 || stats.Sprites != 1 || stats.Frames != 2 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}

	for _, name := range []string{"a.00.png", "a.01.png"} {
		f, err := os.Open(filepath.Join(out, "ui", "panel", name))
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
			t.Errorf("%s bounds = %v", name, b)
		}
	}
}

func TestConvertMissingInput(t *testing.T) {
	var buf bytes.Buffer
	cv := NewConverter(filepath.Join(t.TempDir(), "nope"), t.TempDir(), 1, console.New(&buf, &buf))
	if _, err := cv.Convert(context.Background()); err == nil {
		t.Error("expected error for missing input folder")
	}
}
