package main

import (
	"flag"
	"time"

	"anchorsvm/internal/pkg/config"
	"anchorsvm/internal/pkg/log"
	"anchorsvm/internal/pkg/util"
	"anchorsvm/internal/rpcserver"
	"anchorsvm/svm"
)

const (
	waitTimeout = time.Second * 10
)

type flags struct {
	logLevel   string
	configFile string
}

// Setup flags
func getFlags() (f flags) {
	flag.StringVar(&f.logLevel, "log", "debug", "log level [debug|info|warn|error|crit]")
	flag.StringVar(&f.configFile, "config", "", "path to yaml config file")
	flag.Parse()

	return
}

func main() {
	f := getFlags()
	err := log.Setup(f.logLevel)
	if err != nil {
		log.Logger.Node.Fatalf("Log setup: %s", err)
	}

	cfg, err := config.LoadFile(f.configFile)
	if err != nil {
		log.Logger.Node.Fatalf("Config: %s", err)
	}

	app, err := rpcserver.New(cfg, svm.New())
	if err != nil {
		log.Logger.Node.Fatalf("rpcserver.New: %s", err)
	}

	// RPC
	go func() {
		if err := app.Run(); err != nil {
			log.Logger.Rpc.Fatalf("RPC: %s", err)
		}
	}()

	if cfg.Metrics.IsEnabled {
		go func() {
			if err := app.RunMetrics(); err != nil {
				log.Logger.Rpc.Fatalf("Metrics: %s", err)
			}
		}()
	}

	// Termination handler.
	util.GracefulStop(app.WaitGroup(), waitTimeout, func() {
		err = app.Stop()
		if err != nil {
			log.Logger.Node.Errorf("Stop: %s", err)
		}
	})
}
