// Command cadview renders CAD drawings to an image file.
//
// Usage:
//
//	cadview [flags] drawing.dwg [more.dxf ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/cadview"
	"github.com/gogpu/cadview/frame"
	"github.com/gogpu/cadview/gesture"
)

// config holds the parsed command line.
type config struct {
	license string
	engine  string
	width   int
	height  int
	output  string
	format  string
	orbit   float64
	zoom    float64
	bgra    bool
	info    bool
	paths   []string
}

func main() {
	var (
		cfg     config
		verbose bool
	)
	flag.StringVar(&cfg.license, "license", os.Getenv("CADVIEW_LICENSE"), "engine license key")
	flag.StringVar(&cfg.engine, "engine", "", "engine name (default: first registered)")
	flag.IntVar(&cfg.width, "width", 800, "image width")
	flag.IntVar(&cfg.height, "height", 600, "image height")
	flag.StringVar(&cfg.output, "output", "view.png", "output file")
	flag.StringVar(&cfg.format, "format", "",
		fmt.Sprintf("image format, one of %s (default: from output extension)", strings.Join(frame.Formats(), ", ")))
	flag.Float64Var(&cfg.orbit, "orbit", 0, "horizontal orbit drag in pixels before rendering")
	flag.Float64Var(&cfg.zoom, "zoom", 1, "pinch zoom factor applied after fitting")
	flag.BoolVar(&cfg.bgra, "bgra", false, "render in BGRA pixel order")
	flag.BoolVar(&cfg.info, "info", false, "print drawing metadata")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: cadview [flags] drawing...")
	}
	if verbose {
		cadview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if cfg.license == "" {
		cfg.license = "evaluation"
	}
	if cfg.format == "" {
		cfg.format = filepath.Ext(cfg.output)
	}
	cfg.paths = flag.Args()

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
	log.Printf("View saved to %s (%dx%d)\n", cfg.output, cfg.width, cfg.height)
}

func run(cfg config) error {
	var opts []cadview.Option
	if cfg.engine != "" {
		opts = append(opts, cadview.WithEngineName(cfg.engine))
	}
	if cfg.bgra {
		opts = append(opts, cadview.WithPixelFormat(gputypes.TextureFormatBGRA8Unorm))
	}
	b := cadview.New(opts...)
	if err := b.Initialize(cfg.license); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer b.Shutdown()

	ctx := context.Background()
	for _, path := range cfg.paths {
		h, err := b.LoadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to load: %w", err)
		}
		if cfg.info {
			if err := printInfo(b, h); err != nil {
				return err
			}
		}
	}

	const id = "cli"
	if _, err := b.OpenSurface(id); err != nil {
		return fmt.Errorf("failed to open surface: %w", err)
	}
	if err := b.SetSize(id, cfg.width, cfg.height); err != nil {
		return fmt.Errorf("failed to size surface: %w", err)
	}
	if err := b.FitView(id); err != nil {
		return fmt.Errorf("failed to fit view: %w", err)
	}
	if err := interact(b, id, float64(cfg.width)/2, float64(cfg.height)/2, cfg.orbit, cfg.zoom); err != nil {
		return fmt.Errorf("failed to move camera: %w", err)
	}
	if err := b.Render(ctx, id); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	f, err := os.Create(cfg.output)
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	if err := b.ExportFrame(id, f, cfg.format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to save: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// interact replays the drag and pinch a user would perform.
func interact(b *cadview.Bridge, id string, cx, cy, orbit, zoom float64) error {
	var events []gesture.Event
	if orbit != 0 {
		if err := b.SetOperation(id, "orbit"); err != nil {
			return err
		}
		events = append(events,
			gesture.Event{Kind: gesture.KindDown, X: cx, Y: cy},
			gesture.Event{Kind: gesture.KindMove, X: cx + orbit, Y: cy, DX: orbit},
			gesture.Event{Kind: gesture.KindUp, X: cx + orbit, Y: cy},
		)
	}
	if zoom != 1 && zoom > 0 {
		events = append(events, gesture.Event{Kind: gesture.KindPinch, Scale: zoom})
	}
	for _, ev := range events {
		if err := b.HandlePointer(id, ev); err != nil {
			return err
		}
	}
	return nil
}

func printInfo(b *cadview.Bridge, h int64) error {
	mi, err := b.ModelInfo(h)
	if err != nil {
		return fmt.Errorf("failed to read model info: %w", err)
	}
	layers, err := b.Layers(h)
	if err != nil {
		return fmt.Errorf("failed to read layers: %w", err)
	}
	fmt.Printf("%d\t%s\t%s %s (%s)\tunits=%s\tlayers=%v\n",
		mi.Handle, mi.Path, mi.Format, mi.Version, mi.Release, mi.Units, layers)
	return nil
}
