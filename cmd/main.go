package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alovak/payment-gateway-playground/banksim"
	"github.com/alovak/payment-gateway-playground/gateway"
	"golang.org/x/exp/slog"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout))

	config := gateway.DefaultConfig()
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		config.HTTPAddr = v
	}
	if v := os.Getenv("BANK_BASE_URL"); v != "" {
		config.BankBaseURL = v
	}
	if v := os.Getenv("BANK_BACKEND"); v != "" {
		config.BankBackend = v
	}
	if v := os.Getenv("ISO8583_ADDR"); v != "" {
		config.ISO8583Addr = v
	}
	if v := os.Getenv("BANK_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("invalid BANK_TIMEOUT", "err", err)
			os.Exit(1)
		}
		config.BankTimeout = timeout
	}

	// With no external bank configured, run the simulator alongside the
	// gateway so the service works out of the box.
	var sim *banksim.App
	if os.Getenv("BANK_BASE_URL") == "" && config.BankBackend == "http" {
		sim = banksim.NewApp(logger, "localhost:8080")
		if err := sim.Start(); err != nil {
			logger.Error("starting bank simulator", "err", err)
			os.Exit(1)
		}
		config.BankBaseURL = "http://" + sim.Addr
	}

	app := gateway.NewApp(logger, config)
	if err := app.Start(); err != nil {
		logger.Error("starting gateway", "err", err)
		os.Exit(1)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done

	app.Shutdown()
	if sim != nil {
		sim.Shutdown()
	}
}
