package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ironsheep/platewatch/internal/config"
	"github.com/ironsheep/platewatch/internal/detection"
	"github.com/ironsheep/platewatch/internal/geo"
	"github.com/ironsheep/platewatch/internal/logging"
	"github.com/ironsheep/platewatch/internal/notify"
	"github.com/ironsheep/platewatch/internal/ocr"
	"github.com/ironsheep/platewatch/internal/scan"
	"github.com/ironsheep/platewatch/internal/server"
	"github.com/ironsheep/platewatch/internal/targets"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("platewatch %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := logging.NewLogger(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}

	engine := ocr.New(ocr.Options{
		Command:        cfg.TesseractCmd,
		TessdataPrefix: cfg.TessdataPrefix,
	})
	if info := engine.Info(); info.Available {
		logger.WithField("backend", info.Backend).WithField("version", info.Version).Info("OCR engine ready")
	} else {
		logger.WithField("backend", info.Backend).WithField("error", info.Error).Warn("OCR engine unavailable, scans will fail")
	}

	store := targets.NewStore(validator.New())
	scanner := scan.NewService(
		detection.NewPlateDetector(engine, logger),
		store,
		geo.NewResolver(logger,
			geo.WithEndpoint(cfg.GeoEndpoint),
			geo.WithToken(cfg.IPInfoToken),
			geo.WithTimeout(cfg.GeoTimeout),
		),
		notify.NewSMSNotifier(notify.Credentials{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromPhone:  cfg.TwilioFromPhone,
		}, logger),
		cfg.ScanTimeout,
		logger,
	)

	srv, err := server.NewServer(
		server.WithConfig(cfg),
		server.WithLogger(logger),
		server.WithScanner(scanner),
		server.WithTargets(store),
		server.WithOCRStatus(engine),
	)
	if err != nil {
		logger.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.WithField("port", cfg.Port).Infof("platewatch %s started", Version)

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithField("error", err.Error()).Error("Shutdown did not complete cleanly")
	}
}

func printHelp() {
	fmt.Println("platewatch - license plate watch list with SMS alerts")
	fmt.Println()
	fmt.Println("Usage: platewatch [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  APP_PORT                 Listen port (default 5000)")
	fmt.Println("  APP_SECRET_KEY           Session cookie secret")
	fmt.Println("  TWILIO_ACCOUNT_SID       Twilio account")
	fmt.Println("  TWILIO_AUTH_TOKEN        Twilio token")
	fmt.Println("  TWILIO_FROM_PHONE        Sending number")
	fmt.Println("  TESSERACT_CMD            Use this tesseract executable instead of libtesseract")
	fmt.Println("  TESSDATA_PREFIX          Tesseract language data directory")
	fmt.Println("  GEO_ENDPOINT             IP geolocation endpoint (default https://ipinfo.io/json)")
	fmt.Println("  LOG_LEVEL=debug          Enable debug logging")
	fmt.Println("  LOG_FILE                 Also write logs to this rotating file")
}
