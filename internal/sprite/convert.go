package sprite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/d2rdump/internal/console"
)

const (
	Extension  = ".sprite"
	skipMarker = "lowend"
)

type ConvertStats struct {
	Found   int
	Sprites int
	Frames  int
	Skipped int
	Failed  int
}

type Converter struct {
	inputRoot  string
	outputRoot string
	parallel   int
	console    *console.Console

	// ShowProgress renders a progress bar on stderr.
	ShowProgress bool
}

func NewConverter(inputRoot, outputRoot string, parallel int, c *console.Console) *Converter {
	if parallel < 1 {
		parallel = 1
	}
	return &Converter{
		inputRoot:  inputRoot,
		outputRoot: outputRoot,
		parallel:   parallel,
		console:    c,
	}
}

// Find lists the sprite files below the input root, skipping low-end assets.
func (cv *Converter) Find() (found int, sprites []string, err error) {
	err = filepath.WalkDir(cv.inputRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), Extension) {
			return nil
		}
		found++
		if strings.Contains(strings.ToLower(d.Name()), skipMarker) {
			return nil
		}
		sprites = append(sprites, p)
		return nil
	})
	return found, sprites, err
}

// Convert decodes every sprite below the input root into one PNG per frame.
// Per-file failures are reported and counted; only ctx cancellation and a
// missing input root are returned as errors.
func (cv *Converter) Convert(ctx context.Context) (ConvertStats, error) {
	var stats ConvertStats

	if info, err := os.Stat(cv.inputRoot); err != nil || !info.IsDir() {
		return stats, fmt.Errorf("input folder not found: %s", cv.inputRoot)
	}

	found, sprites, err := cv.Find()
	if err != nil {
		return stats, err
	}
	stats.Found = found
	cv.console.Info("Found %d sprite(s) to process (out of %d total).", len(sprites), found)

	var bar *progressbar.ProgressBar
	if cv.ShowProgress {
		bar = progressbar.NewOptions(len(sprites),
			progressbar.OptionSetDescription("Converting sprites"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	var converted, frames, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cv.parallel)

	for _, p := range sprites {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := cv.convertOne(p)
			switch {
			case err == nil:
				converted.Add(1)
				frames.Add(int64(n))
			case isVersionErr(err):
				cv.console.Info("Skipping %s: %v", p, err)
				skipped.Add(1)
			default:
				cv.console.Error("Cannot convert %s: %v", p, err)
				failed.Add(1)
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	if bar != nil {
		bar.Finish()
	}

	stats.Sprites = int(converted.Load())
	stats.Frames = int(frames.Load())
	stats.Skipped = int(skipped.Load())
	stats.Failed = int(failed.Load())
	return stats, err
}

func (cv *Converter) convertOne(p string) (int, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return 0, err
	}
	frames, err := Decode(data)
	if err != nil {
		return 0, err
	}

	rel, err := filepath.Rel(cv.inputRoot, p)
	if err != nil {
		return 0, err
	}
	outDir := filepath.Join(cv.outputRoot, filepath.Dir(rel))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	stem := strings.TrimSuffix(filepath.Base(p), Extension)
	for i, img := range frames {
		out := filepath.Join(outDir, fmt.Sprintf("%s.%02d.png", stem, i))
		if err := writePNG(out, img); err != nil {
			return i, err
		}
	}
	return len(frames), nil
}

func writePNG(p string, img image.Image) error {
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isVersionErr(err error) bool {
	return errors.Is(err, ErrVersion)
}
