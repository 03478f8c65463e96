package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refractiq/internal/agent"
	"refractiq/internal/logs"
	"refractiq/internal/queue"
)

func main() {
	serverURL := flag.String("server", "http://localhost:9000", "Backend API URL")
	deviceID := flag.String("device-id", "", "Device identifier (required)")
	interval := flag.Duration("interval", 15*time.Second, "Interval between readings")
	jitter := flag.Float64("jitter", 0.0, "Jitter as fraction of interval, e.g. 0.1 = ±10%")
	failureRate := flag.Float64("failure-rate", 0.0, "Simulated sensor failure rate (0.0-1.0)")
	apiKey := flag.String("api-key", "", "API key sent as X-API-Key (optional)")
	queueFile := flag.String("queue-file", "queue.jsonl", "Durable queue file path")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-request delivery timeout")

	flag.Parse()

	logs.Init(logs.Options{Level: "info", Format: "text"})

	if *deviceID == "" {
		logs.Logger.Fatal("-device-id is required")
	}

	a := agent.New(agent.Options{
		DeviceID:    *deviceID,
		Interval:    *interval,
		Jitter:      *jitter,
		FailureRate: *failureRate,
	}, queue.New(*queueFile), agent.NewHTTPSender(*serverURL, *apiKey, *timeout))

	logs.Logger.Infof("device simulator starting: device=%s server=%s interval=%s jitter=±%.0f%%",
		*deviceID, *serverURL, *interval, *jitter*100)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Run(ctx)
}
