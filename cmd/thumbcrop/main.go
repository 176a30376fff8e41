package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/esimov/thumbcrop"
	"github.com/esimov/thumbcrop/utils"
)

const HelpBanner = `
╔╦╗╦ ╦╦ ╦╔╦╗╔╗ ╔═╗╦═╗╔═╗╔═╗
 ║ ╠═╣║ ║║║║╠╩╗║  ╠╦╝║ ║╠═╝
 ╩ ╩ ╩╚═╝╩ ╩╚═╝╚═╝╩╚═╚═╝╩

Content aware thumbnail cropping.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source        = flag.String("in", pipeName, "Source")
	destination   = flag.String("out", pipeName, "Destination")
	newWidth      = flag.Int("width", 0, "Thumbnail width")
	newHeight     = flag.Int("height", 0, "Thumbnail height")
	stride        = flag.Int("stride", thumbcrop.DefaultStride, "Distance in pixels between candidate crops")
	downSample    = flag.Int("downsample", thumbcrop.DefaultDownSample, "Feature map downsample factor")
	scaleMax      = flag.Float64("scale-max", 1.0, "Largest crop scale")
	scaleMin      = flag.Float64("scale-min", 1.0, "Smallest crop scale")
	scaleStep     = flag.Float64("scale-step", thumbcrop.DefaultScaleStep, "Crop scale decrement")
	maxCandidates = flag.Int("max-candidates", 0, "Maximum number of candidate crops (0 means unlimited)")
	workers       = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	prescale      = flag.Bool("prescale", true, "Downscale large images before the analysis")
	resize        = flag.Bool("resize", true, "Resize the crop to the exact thumbnail size")
	overlay       = flag.Bool("overlay", false, "Output the source with the crop outlined and the background removed")
	debug         = flag.Bool("debug", false, "Save the intermediate feature maps")
	debugDir      = flag.String("debug-dir", ".", "Directory of the debug images")
	configFile    = flag.String("config", "", "YAML configuration file")
	verbose       = flag.Bool("verbose", false, "Log the analysis stages")
	version       = flag.Bool("version", false, "Print the version")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Printf("thumbcrop version: %s\n", Version)
		return
	}

	if *newWidth <= 0 || *newHeight <= 0 {
		flag.Usage()
		log.Fatal(fmt.Sprintf("%s%s",
			utils.DecorateText("\nPlease provide both the width and the height of the thumbnail!", utils.ErrorMessage),
			utils.DefaultColor,
		))
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	proc := &thumbcrop.Processor{
		Width:    *newWidth,
		Height:   *newHeight,
		Config:   cfg,
		Prescale: *prescale,
		Resize:   *resize,
		Debug:    *debug,
		DebugDir: *debugDir,
		Overlay:  *overlay,
	}
	if *overlay {
		proc.Segmenter = thumbcrop.NewSegmentation(thumbcrop.BoxSegmenter{})
	}
	if *verbose {
		proc.Logger = log.New(os.Stderr, "", 0)
	}

	// The spinner would garble the output written to stdout.
	if *destination != pipeName && !*verbose {
		spinnerText := fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ THUMBCROP", utils.StatusMessage),
			utils.DecorateText("is cropping the image...", utils.DefaultMessage))
		proc.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*80, true)
	}

	op := &thumbcrop.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
	}
	if err := proc.Execute(op); err != nil {
		log.Fatal(utils.DecorateText(fmt.Sprintf("\nError cropping the image: %v", err), utils.ErrorMessage))
	}
}

// loadConfig reads the optional configuration file. Flags set explicitly
// on the command line override the values of the file.
func loadConfig() (thumbcrop.Config, error) {
	cfg := thumbcrop.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = thumbcrop.LoadConfig(*configFile); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stride":
			cfg.Stride = *stride
		case "downsample":
			cfg.DownSample = *downSample
		case "scale-max":
			cfg.Scales.Max = *scaleMax
		case "scale-min":
			cfg.Scales.Min = *scaleMin
		case "scale-step":
			cfg.Scales.Step = *scaleStep
		case "max-candidates":
			cfg.MaxCandidates = *maxCandidates
		}
	})
	return cfg, cfg.Validate()
}
