package main

import (
	"context"
	goflag "flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/chzchzchz/scanrx/config"
	"github.com/chzchzchz/scanrx/mqtt"
	"github.com/chzchzchz/scanrx/radio"
	"github.com/chzchzchz/scanrx/scanrx"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "scanrx",
	Short: "An SDR scanner that records active transmissions.",
}

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Scan the configured ranges and record transmissions",
		Run:   func(cmd *cobra.Command, args []string) { serve() },
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.json", "Path to config file")
	rootCmd.AddCommand(serveCmd)

	// glog's -v, -logtostderr, ...
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
}

func serve() {
	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	for _, r := range cfg.IgnoredRanges {
		glog.Infof("ignored range: %s", r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := radio.Open(ctx, cfg.Driver, cfg.Serial)
	if err != nil {
		glog.Exitf("open %s/%s: %v", cfg.Driver, cfg.Serial, err)
	}
	defer source.Close()

	pub, err := mqtt.Dial(cfg.Mqtt.Broker, cfg.Mqtt.User, cfg.Mqtt.Password, "scanrx-"+cfg.DeviceId())
	if err != nil {
		glog.Exitf("mqtt: %v", err)
	}
	defer pub.Close()

	notification := scanrx.NewMailbox()
	data := scanrx.NewDataController(pub, cfg.DeviceId())
	device, err := scanrx.NewDevice(source, scanrx.DeviceParams{
		Driver:              cfg.Driver,
		Serial:              cfg.Serial,
		SampleRate:          cfg.SampleRate,
		MaxBinWidth:         cfg.MaxBinWidth,
		TargetFps:           cfg.TargetFps,
		StartThreshold:      cfg.StartThreshold,
		StopThreshold:       cfg.StopThreshold,
		RecordingTimeout:    cfg.RecordingTimeout(),
		RecordingBandwidth:  cfg.RecordingBandwidth,
		TuningStep:          cfg.TuningStep,
		InitialDelay:        cfg.InitialDelay(),
		SpectrogramMinStep:  cfg.SpectrogramMinStep,
		SpectrogramInterval: cfg.SpectrogramInterval(),
		RecordersCount:      cfg.RecordersCount,
		Gains:               cfg.Gains,
		IgnoredRanges:       cfg.IgnoredRanges,
		SaveRawIQ:           cfg.DebugSaveFullRawIq,
		ClipDir:             cfg.ClipDir,
	}, notification, data)
	if err != nil {
		glog.Exitf("device: %v", err)
	}

	scanner := scanrx.NewScanner(device, cfg.Ranges(), notification, cfg.RangeScanTime())
	scanner.Start()

	<-ctx.Done()
	glog.Info("shutting down")
	scanner.Stop()
	device.Close()
	glog.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
