package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wz2b/wxdial/internal/imgprep"
	"github.com/wz2b/wxdial/pkg/logging"
	"github.com/wz2b/wxdial/pkg/wxs/format"
)

const version = "0.2.0"

var (
	inputPath  string
	outputPath string
	tileWidth  int
	tileHeight int
	colors     int
	everyN     int
	maxFrames  int
	alphaThr   int
	codecName  string
	zlibLevel  int
	logLevel   string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:     "wxs-builder",
		Short:   "Convert GIF animations and BMP sprite sheets to WXS2 (.wxs) files",
		Long:    `Convert GIF animations and BMP sprite sheets to WXS2 (.wxs) files`,
		Version: version,
		RunE:    buildSprite,
	}

	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input .gif or .bmp file (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output .wxs path (required)")
	rootCmd.Flags().IntVar(&tileWidth, "tile-width", 64, "Frame width in pixels")
	rootCmd.Flags().IntVar(&tileHeight, "tile-height", 64, "Frame height in pixels")
	rootCmd.Flags().IntVar(&colors, "colors", 16, "Palette size including the transparent entry (2-256)")
	rootCmd.Flags().IntVar(&everyN, "every-n", 1, "Keep one source frame in every n")
	rootCmd.Flags().IntVar(&maxFrames, "max-frames", 32, "Maximum frames to keep (0 = all)")
	rootCmd.Flags().IntVar(&alphaThr, "alpha-threshold", 10, "Alpha at or below this is transparent (0-255)")
	rootCmd.Flags().StringVar(&codecName, "codec", "zlib", "Frame codec: zlib, zstd or bzip2")
	rootCmd.Flags().IntVar(&zlibLevel, "zlib-level", 9, "zlib compression level (1-9)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	if err := rootCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	if err := rootCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func buildSprite(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		level = logging.GetLogLevel()
	}
	logger := logging.NewLogger("wxs-builder", level, os.Stderr)

	if alphaThr < 0 || alphaThr > 255 {
		return fmt.Errorf("alpha-threshold must be 0-255, got %d", alphaThr)
	}
	codec, err := format.ParseCodec(codecName)
	if err != nil {
		return err
	}

	var frames []*image.RGBA
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".gif":
		frames, err = imgprep.LoadGIF(inputPath, tileWidth, tileHeight, everyN, maxFrames)
	case ".bmp":
		frames, err = imgprep.LoadBMPSheet(inputPath, tileWidth, tileHeight)
	default:
		return fmt.Errorf("unsupported input type: %s", inputPath)
	}
	if err != nil {
		return err
	}
	logger.Debug("loaded source frames", "input", inputPath, "frames", len(frames))

	palette, err := imgprep.BuildPalette(frames, colors, uint8(alphaThr))
	if err != nil {
		return err
	}
	indexed := imgprep.IndexFrames(frames, palette, uint8(alphaThr))

	enc := format.Encoder{
		TileW:          tileWidth,
		TileH:          tileHeight,
		Palette:        palette,
		AlphaThreshold: uint8(alphaThr),
		Codec:          codec,
		Level:          zlibLevel,
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	stats, err := enc.Encode(out, indexed)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	ratio := 0.0
	if stats.RawBytes > 0 {
		ratio = float64(stats.StoredBytes) / float64(stats.RawBytes)
	}
	fmt.Printf("%-20s -> %-20s frames=%2d (%d unique) tile=%dx%d colors=%3d raw=%6.1fKB %s=%6.1fKB file=%6.1fKB ratio=%5.2f\n",
		filepath.Base(inputPath), filepath.Base(outputPath),
		stats.Frames, stats.UniqueFrames, tileWidth, tileHeight, colors,
		float64(stats.RawBytes)/1024, codec, float64(stats.StoredBytes)/1024,
		float64(stats.FileBytes)/1024, ratio)

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
