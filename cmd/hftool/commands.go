package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/terraedit/internal/brush"
	"github.com/Faultbox/terraedit/internal/compute"
	"github.com/Faultbox/terraedit/internal/config"
	"github.com/Faultbox/terraedit/internal/editor"
	"github.com/Faultbox/terraedit/internal/logger"
	"github.com/Faultbox/terraedit/internal/terrain"
	"github.com/Faultbox/terraedit/pkg/math"
)

func cmdNew(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	size := fs.Int("size", config.Default().Terrain.Resolution, "Texels per side")
	fill := fs.Float64("fill", 0, "Initial height")
	if err := fs.Parse(reorder(args)); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: hftool new <file> [-size N] [-fill H]", errUsage)
	}

	h, err := terrain.NewHeightfield(*size, *size)
	if err != nil {
		return err
	}
	h.Fill(float32(*fill))
	if err := terrain.SaveSnapshot(fs.Arg(0), h); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created: %s (%dx%d)\n", fs.Arg(0), *size, *size)
	return nil
}

func cmdInfo(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: hftool info <file>", errUsage)
	}
	h, err := terrain.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	lo, hi := h.Range()
	var sum float64
	for _, v := range h.Data() {
		sum += float64(v)
	}
	st, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	raw := 4 * len(h.Data())

	fmt.Fprintf(out, "Snapshot: %s\n", args[0])
	fmt.Fprintf(out, "Size:     %dx%d\n", h.Width(), h.Height())
	fmt.Fprintf(out, "Range:    %.4f .. %.4f\n", lo, hi)
	fmt.Fprintf(out, "Mean:     %.4f\n", sum/float64(len(h.Data())))
	fmt.Fprintf(out, "File:     %.2f KB (%.1f%% of raw)\n", float64(st.Size())/1024, 100*float64(st.Size())/float64(raw))
	return nil
}

// strokeFlags are the options shared by the commands that edit a snapshot.
type strokeFlags struct {
	fs       *flag.FlagSet
	config   *string
	out      *string
	u, v     *float64
	size     *int
	strength *float64
	sigma    *float64
	falloff  *string
	distance *string
	save     *string
}

func newStrokeFlags(name string) *strokeFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &strokeFlags{
		fs:       fs,
		config:   fs.String("config", "", "Config file with brush and filter defaults"),
		out:      fs.String("out", "", "Output snapshot (default: overwrite input)"),
		u:        fs.Float64("u", 0.5, "Brush center u in [0,1]"),
		v:        fs.Float64("v", 0.5, "Brush center v in [0,1]"),
		size:     fs.Int("size", 0, "Brush size in texels"),
		strength: fs.Float64("strength", 0, "Brush strength"),
		sigma:    fs.Float64("sigma", 0, "Gaussian falloff sigma"),
		falloff:  fs.String("falloff", "", "Falloff curve (sine, gaussian, constant)"),
		distance: fs.String("distance", "", "Patch distance (rectangle, circular)"),
		save:     fs.String("save-config", "", "Write the merged settings to a config file"),
	}
}

// editorConfig merges the flags over the config file or the defaults. adjust
// applies command specific flags before the result is validated and, with
// -save-config, written out.
func (f *strokeFlags) editorConfig(adjust func(*config.Config)) (editor.Config, error) {
	cfg := config.Default()
	if *f.config != "" {
		loaded, err := config.LoadFile(*f.config)
		if err != nil {
			return editor.Config{}, err
		}
		cfg = loaded
	}
	b := cfg.Brush
	if *f.size > 0 {
		b.Size = *f.size
	}
	if *f.strength > 0 {
		b.Strength = float32(*f.strength)
	}
	if *f.sigma > 0 {
		b.Sigma = float32(*f.sigma)
	}
	if *f.falloff != "" {
		fo, err := brush.ParseFalloff(*f.falloff)
		if err != nil {
			return editor.Config{}, err
		}
		b.Falloff = fo
	}
	if *f.distance != "" {
		m, err := brush.ParseDistanceMode(*f.distance)
		if err != nil {
			return editor.Config{}, err
		}
		b.Distance = m
	}
	cfg.Brush = b
	if adjust != nil {
		adjust(cfg)
	}

	if *f.save != "" {
		if err := cfg.SaveTo(*f.save); err != nil {
			return editor.Config{}, err
		}
		logger.Info("settings saved", zap.String("path", *f.save))
	}
	return cfg.Editor(), nil
}

func (f *strokeFlags) uv() math.Vec2 {
	return math.Vec2{X: float32(*f.u), Y: float32(*f.v)}
}

// openSession loads the snapshot and derives its normals on a CPU executor.
func openSession(path string, ed editor.Config) (*editor.Session, *compute.Executor, error) {
	h, err := terrain.LoadSnapshot(path)
	if err != nil {
		return nil, nil, err
	}
	n, err := terrain.NewNormalMap(h.Width(), h.Height())
	if err != nil {
		return nil, nil, err
	}
	exec := compute.NewExecutor(compute.WithLogger(logger.Named("compute")))
	s, err := editor.NewSession(h, n, exec, ed, logger.Named("editor"))
	if err != nil {
		exec.Close()
		return nil, nil, err
	}
	if err := s.RecomputeNormals(context.Background()); err != nil {
		exec.Close()
		return nil, nil, err
	}
	return s, exec, nil
}

// applyStroke runs one stroke update and writes the result.
func applyStroke(f *strokeFlags, ed editor.Config, tool editor.Tool, out io.Writer) error {
	if f.fs.NArg() < 1 {
		return fmt.Errorf("%w: hftool %s <file> -u U -v V", errUsage, f.fs.Name())
	}
	in := f.fs.Arg(0)
	s, exec, err := openSession(in, ed)
	if err != nil {
		return err
	}
	defer exec.Close()

	before := s.Heights().Clone()
	if err := s.BeginStroke(tool); err != nil {
		return err
	}
	err = s.Apply(context.Background(), f.uv())
	s.EndStroke()
	if err != nil {
		return err
	}

	dst := *f.out
	if dst == "" {
		dst = in
	}
	if err := terrain.SaveSnapshot(dst, s.Heights()); err != nil {
		return err
	}

	changed, maxDelta := diff(before, s.Heights())
	st := exec.Stats()
	logger.Debug("stroke applied",
		zap.Stringer("tool", tool),
		zap.Uint64("dispatches", st.Dispatches),
		zap.Uint64("invocations", st.Invocations),
	)
	fmt.Fprintf(out, "%s: %d texels changed, max |delta| %.4f -> %s\n", tool, changed, maxDelta, dst)
	return nil
}

func cmdPaint(args []string, out io.Writer) error {
	f := newStrokeFlags("paint")
	lower := f.fs.Bool("lower", false, "Lower instead of raise")
	if err := f.fs.Parse(reorder(args)); err != nil {
		return err
	}
	ed, err := f.editorConfig(nil)
	if err != nil {
		return err
	}
	tool := editor.Raise
	if *lower {
		tool = editor.Lower
	}
	return applyStroke(f, ed, tool, out)
}

func cmdSmooth(args []string, out io.Writer) error {
	f := newStrokeFlags("smooth")
	kernel := f.fs.Int("kernel", 0, "Smoothing kernel width (odd)")
	commit := f.fs.Bool("commit", false, "Write the smoothed heights back")
	if err := f.fs.Parse(reorder(args)); err != nil {
		return err
	}
	ed, err := f.editorConfig(func(cfg *config.Config) {
		if *kernel > 0 {
			cfg.Smoothing.Kernel = *kernel
		}
		cfg.Smoothing.Commit = cfg.Smoothing.Commit || *commit
	})
	if err != nil {
		return err
	}
	return applyStroke(f, ed, editor.Smooth, out)
}

func cmdPlan(args []string, out io.Writer) error {
	f := newStrokeFlags("plan")
	toolName := f.fs.String("tool", "raise", "Tool (raise, lower, smooth)")
	if err := f.fs.Parse(reorder(args)); err != nil {
		return err
	}
	if f.fs.NArg() < 1 {
		return fmt.Errorf("%w: hftool plan <file> -tool T -u U -v V", errUsage)
	}
	tool, err := parseTool(*toolName)
	if err != nil {
		return err
	}
	ed, err := f.editorConfig(nil)
	if err != nil {
		return err
	}
	h, err := terrain.LoadSnapshot(f.fs.Arg(0))
	if err != nil {
		return err
	}
	n, err := terrain.NewNormalMap(h.Width(), h.Height())
	if err != nil {
		return err
	}
	// Recording never submits, so no backend is needed.
	s, err := editor.NewSession(h, n, nil, ed, nil)
	if err != nil {
		return err
	}
	stream, err := s.Record(tool, f.uv())
	if err != nil {
		return err
	}
	if err := stream.Validate(); err != nil {
		fmt.Fprintf(out, "invalid: %v\n", err)
	}
	fmt.Fprintln(out, stream)
	return nil
}

func cmdNormalize(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	dstFlag := fs.String("out", "", "Output snapshot (default: overwrite input)")
	if err := fs.Parse(reorder(args)); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: hftool normalize <file> [-out FILE]", errUsage)
	}
	h, err := terrain.LoadSnapshot(fs.Arg(0))
	if err != nil {
		return err
	}
	lo, hi := h.Range()
	h.Normalize()
	nlo, nhi := h.Range()

	dst := *dstFlag
	if dst == "" {
		dst = fs.Arg(0)
	}
	if err := terrain.SaveSnapshot(dst, h); err != nil {
		return err
	}
	fmt.Fprintf(out, "Normalized: %.4f .. %.4f -> %.4f .. %.4f (%s)\n", lo, hi, nlo, nhi, dst)
	return nil
}

func cmdExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	normals := fs.Bool("normals", false, "Export the packed normal map instead of heights")
	if err := fs.Parse(reorder(args)); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: hftool export <file> <out.png> [-normals]", errUsage)
	}

	var img image.Image
	if *normals {
		s, exec, err := openSession(fs.Arg(0), config.Default().Editor())
		if err != nil {
			return err
		}
		exec.Close()
		img = normalImage(s.Normals())
	} else {
		h, err := terrain.LoadSnapshot(fs.Arg(0))
		if err != nil {
			return err
		}
		img = heightImage(h)
	}

	f, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := encodeImage(f, fs.Arg(1), img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	b := img.Bounds()
	fmt.Fprintf(out, "Exported: %s (%dx%d)\n", fs.Arg(1), b.Dx(), b.Dy())
	return nil
}

// encodeImage picks the format from the file extension: TIFF for .tif and
// .tiff, PNG otherwise.
func encodeImage(w io.Writer, name string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return png.Encode(w, img)
}

// heightImage maps the height range onto 16-bit gray, row v=0 on top.
func heightImage(h *terrain.Heightfield) *image.Gray16 {
	lo, hi := h.Range()
	scale := float32(0)
	if hi > lo {
		scale = 65535 / (hi - lo)
	}
	img := image.NewGray16(image.Rect(0, 0, h.Width(), h.Height()))
	for y := 0; y < h.Height(); y++ {
		for x := 0; x < h.Width(); x++ {
			v, _ := h.At(x, y)
			img.SetGray16(x, y, color.Gray16{Y: uint16((v - lo) * scale)})
		}
	}
	return img
}

// normalImage wraps the packed RGBA8 normal texels.
func normalImage(n *terrain.NormalMap) *image.NRGBA {
	return &image.NRGBA{
		Pix:    n.RGBA8(),
		Stride: 4 * n.Width(),
		Rect:   image.Rect(0, 0, n.Width(), n.Height()),
	}
}

func parseTool(s string) (editor.Tool, error) {
	for _, t := range []editor.Tool{editor.Raise, editor.Lower, editor.Smooth} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown tool %q", errUsage, s)
}

// diff counts changed texels and the largest absolute change.
func diff(a, b *terrain.Heightfield) (changed int, maxDelta float32) {
	ad, bd := a.Data(), b.Data()
	for i := range ad {
		d := bd[i] - ad[i]
		if d < 0 {
			d = -d
		}
		if d > 0 {
			changed++
			maxDelta = max(maxDelta, d)
		}
	}
	return changed, maxDelta
}

// reorder moves positional arguments behind the flags so "paint file -u 1"
// parses like "paint -u 1 file".
func reorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 1 && a[0] == '-' {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && i+1 < len(args) && !isBoolFlag(a) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positional = append(positional, a)
	}
	return append(flags, positional...)
}

var boolFlags = map[string]bool{"lower": true, "commit": true, "normals": true, "h": true, "help": true}

func isBoolFlag(a string) bool {
	return boolFlags[strings.TrimLeft(a, "-")]
}
