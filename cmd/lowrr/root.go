package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/lowrr-go/internal/imageio"
	"github.com/cwbudde/lowrr-go/internal/registration"
)

var (
	logLevel string

	lambda               float64
	rho                  float64
	maxIterations        int
	convergenceThreshold float64
	levels               int
	sparseSwitch         float64
	sparseThreshold      float64
	doImageCorrection    bool
	equalize             float64
	cropFlag             string
	outDir               string
	traceOut             string
	saveCrop             bool
	saveImgs             bool
)

var rootCmd = &cobra.Command{
	Use:   "lowrr [image ...]",
	Short: "Joint image alignment via low-rank + sparse decomposition",
	Long: `lowrr registers a burst of images that observe the same scene under
varying illumination (or noise) by jointly estimating a per-image affine
warp: the stack of warped images is modeled as a low-rank matrix
corrupted by a sparse error, solved by ADMM over a multi-resolution
pyramid.`,
	Args: cobra.MinimumNArgs(2),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
	},
	RunE: runAlign,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.Flags().Float64Var(&lambda, "lambda", 1.5, "Sparse-term weight (normalized internally by 1/sqrt(pixel count))")
	rootCmd.Flags().Float64Var(&rho, "rho", 0.1, "Augmented-Lagrangian penalty")
	rootCmd.Flags().IntVar(&maxIterations, "max-iterations", 40, "Maximum ADMM iterations per level")
	rootCmd.Flags().Float64Var(&convergenceThreshold, "convergence-threshold", 1e-3, "Relative residual below which a level stops")
	rootCmd.Flags().IntVar(&levels, "levels", 4, "Pyramid depth")
	rootCmd.Flags().Float64Var(&sparseSwitch, "sparse-switch", 0.5, "Selected-pixel ratio below which the sparse solver runs")
	rootCmd.Flags().Float64Var(&sparseThreshold, "sparse-threshold", 0, "Gradient-magnitude threshold for sparse pixel selection (omit to use the pixel type's default)")
	rootCmd.Flags().BoolVar(&doImageCorrection, "do-image-correction", true, "Enable the sparse-error term (disable to fit a pure low-rank model)")
	rootCmd.Flags().Float64Var(&equalize, "equalize", 0, "Target mean intensity in [0,1] to rescale every image to before registration (omit to disable)")
	rootCmd.Flags().StringVar(&cropFlag, "crop", "", "Crop window x1,y1,x2,y2 to restrict registration to")
	rootCmd.Flags().StringVar(&outDir, "out-dir", "out", "Directory for debug artifacts")
	rootCmd.Flags().StringVar(&traceOut, "trace-out", "", "Path for the JSONL diagnostic trace (defaults to out-dir/trace.jsonl)")
	rootCmd.Flags().BoolVar(&saveCrop, "save-crop", false, "Write the cropped input images to out-dir")
	rootCmd.Flags().BoolVar(&saveImgs, "save-imgs", false, "Write the final registered images to out-dir")
}

func runAlign(cmd *cobra.Command, args []string) error {
	paths, err := imageio.ExpandPaths(args)
	if err != nil {
		return err
	}
	slog.Info("expanded input paths", "count", len(paths))

	stack, err := imageio.LoadStack(paths)
	if err != nil {
		return err
	}
	slog.Info("loaded image stack", "count", len(stack.Images), "width", stack.Width, "height", stack.Height, "kind", stack.Kind.String())

	cfg := registration.DefaultConfig(stack.Kind)
	cfg.Lambda = lambda
	cfg.Rho = rho
	cfg.MaxIterations = maxIterations
	cfg.Threshold = convergenceThreshold
	cfg.Levels = levels
	cfg.SparseRatioThreshold = sparseSwitch
	cfg.DoImageCorrection = doImageCorrection
	if cmd.Flags().Changed("sparse-threshold") {
		cfg.SparseThreshold = sparseThreshold
	}
	if cmd.Flags().Changed("equalize") {
		target := equalize
		cfg.Equalize = &target
	}
	if cropFlag != "" {
		rect, err := parseCrop(cropFlag)
		if err != nil {
			return err
		}
		cfg.Crop = &rect
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create out-dir: %w", err)
	}

	tracePath := traceOut
	if tracePath == "" {
		tracePath = outDir + "/trace.jsonl"
	}
	traceWriter, err := registration.NewJSONLTraceWriter(tracePath)
	if err == nil {
		cfg.Trace = traceWriter.Handle
		defer traceWriter.Close()
	} else {
		slog.Warn("could not open trace file, continuing without trace", "error", err)
	}

	if saveCrop && cfg.Crop != nil {
		if err := saveDebugCrops(stack, *cfg.Crop); err != nil {
			slog.Warn("failed to save cropped debug images", "error", err)
		}
	}

	motions, err := registration.Run(cfg, stack.Images)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	for _, m := range motions {
		fmt.Printf("%g,%g,%g,%g,%g,%g\n", m[0], m[1], m[2], m[3], m[4], m[5])
	}

	if saveImgs {
		if err := saveRegisteredImages(stack, motions, cfg.ImageMax); err != nil {
			slog.Warn("failed to save registered debug images", "error", err)
		}
	}

	return nil
}

func parseCrop(s string) (registration.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return registration.Rect{}, fmt.Errorf("--crop must be x1,y1,x2,y2, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return registration.Rect{}, fmt.Errorf("--crop value %q is not an integer: %w", p, err)
		}
		vals[i] = v
	}
	return registration.Rect{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

func saveDebugCrops(stack *imageio.Stack, rect registration.Rect) error {
	for i, img := range stack.Images {
		cropped, err := registration.CropImage(rect, img)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("%s/crop-%03d.png", outDir, i)
		if err := imageio.SavePNG(path, cropped, stack.Kind, stack.Kind.DefaultImageMax()); err != nil {
			return err
		}
	}
	return nil
}

func saveRegisteredImages(stack *imageio.Stack, motions []registration.MotionParams, imageMax float64) error {
	for i, img := range stack.Images {
		registered := registration.WarpImage(img, motions[i])
		path := fmt.Sprintf("%s/registered-%03d.png", outDir, i)
		if err := imageio.SavePNG(path, registered, stack.Kind, imageMax); err != nil {
			return err
		}
	}
	return nil
}
