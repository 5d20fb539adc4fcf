package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/chzchzchz/scanrx/dsp"
	"github.com/chzchzchz/scanrx/radio"
)

var (
	sampleHz  int64
	fftBins   int
	winRows   int
	decimate  int
	learn     bool
	rangeLoDB float64
	rangeHiDB float64
)

var rootCmd = &cobra.Command{
	Use:   "psdscope [flags] input.iq8",
	Short: "Waterfall of the scanner's detection spectra.",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { run(args[0]) },
}

func init() {
	rootCmd.Flags().Int64VarP(&sampleHz, "sample-rate", "s", 2048000, "Sample rate in Hz")
	rootCmd.Flags().IntVarP(&fftBins, "bins", "w", 1024, "FFT bins / window width")
	rootCmd.Flags().IntVarP(&winRows, "rows", "r", 480, "Waterfall rows / window height")
	rootCmd.Flags().IntVarP(&decimate, "decimate", "d", 1, "Keep one FFT window in this many")
	rootCmd.Flags().BoolVarP(&learn, "noise-subtract", "n", true, "Subtract the learned noise floor")
	rootCmd.Flags().Float64Var(&rangeLoDB, "db-low", -10, "Bottom of the colour scale in dB")
	rootCmd.Flags().Float64Var(&rangeHiDB, "db-high", 50, "Top of the colour scale in dB")
}

func openInput(path string) (*os.File, func()) {
	if path == "-" {
		return os.Stdin, func() {}
	}
	f, err := os.Open(path)
	if err != nil {
		panic(err)
	}
	return f, func() { f.Close() }
}

func run(path string) {
	f, closer := openInput(path)
	defer closer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampc := radio.NewIQReader(f).BatchStream64(ctx, fftBins, 0)
	framec := dsp.Frame(ctx, fftBins, decimate, sampc)
	psdc := dsp.Spectral(ctx, fftBins, framec)
	learner := dsp.NewNoiseLearner(fftBins, dsp.Alpha(5, float64(sampleHz)/float64(fftBins*decimate)))
	learner.SetProcessing(learn)

	win, err := sdl.CreateWindow(
		"psdscope",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(fftBins),
		int32(winRows),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		panic(err)
	}
	defer win.Destroy()

	r, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_TARGETTEXTURE)
	if err != nil {
		panic(err)
	}
	defer r.Destroy()
	if err := r.SetLogicalSize(int32(fftBins), int32(winRows)); err != nil {
		panic(err)
	}

	wf := newWaterfall(r, fftBins, winRows, rangeLoDB, rangeHiDB)
	defer wf.Destroy()

	for {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.KeyboardEvent:
				if e.Keysym.Sym == sdl.K_q || e.Keysym.Sym == sdl.K_ESCAPE {
					return
				}
			}
		}
		psd, ok := <-psdc
		if !ok {
			return
		}
		wf.add(learner.Work(psd))
		wf.blit()
		r.Present()
	}
}

func main() {
	if err := sdl.Init(sdl.INIT_TIMER | sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()
	rootCmd.Execute()
}
