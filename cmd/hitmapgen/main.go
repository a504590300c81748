// Command hitmapgen precomputes the opacity bitmap of a tileset image and
// writes it next to the image, so the client never rasterizes textures to
// answer picks.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"isoclient/internal/hitmap"
	"isoclient/internal/logger"
)

func main() {
	scale := flag.Float64("scale", 1, "scale applied before sampling (0.5 turns a 2x asset into logical pixels)")
	threshold := flag.Uint("threshold", uint(hitmap.DefaultThreshold), "minimum alpha counted as opaque (0-255)")
	out := flag.String("o", "", "output path (default: <image>"+hitmap.SidecarExt+")")
	level := flag.String("log-level", "info", "log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: hitmapgen [flags] image...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger.Init(*level, "text")

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *threshold > 255 {
		logger.Log.WithField("threshold", *threshold).Fatal("Threshold must be in 0-255")
	}
	if *out != "" && flag.NArg() > 1 {
		logger.Log.Fatal("-o can only be used with a single image")
	}

	failed := 0
	for _, path := range flag.Args() {
		dst := *out
		if dst == "" {
			dst = hitmap.SidecarPath(path)
		}
		if err := generate(path, dst, *scale, uint8(*threshold)); err != nil {
			logger.Log.WithError(err).WithField("image", path).Error("Failed to generate hit map")
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func generate(src, dst string, scale float64, threshold uint8) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bm := hitmap.BuildScaled(img, scale, threshold)
	if err := hitmap.Save(dst, bm); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"image":  src,
		"format": format,
		"output": dst,
		"width":  bm.Width,
		"height": bm.Height,
		"opaque": bm.Opaque(),
	}).Info("Wrote hit map")
	return nil
}
