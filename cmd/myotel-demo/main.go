// Package main provides the myotel-demo CLI tool showing unified contexts
// over a configured telemetry pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/andeya/myotel"
)

type requestInfo struct {
	ID     string
	Source string
}

func main() {
	configPath := flag.String("config", "", "Path to telemetry config file (YAML/JSON)")
	workers := flag.Int("workers", 3, "Number of concurrent child workers")
	cancelAfter := flag.Duration("cancel-after", 0, "Cancel the root scope after this duration (0 = run to completion)")
	flag.Parse()

	if err := run(*configPath, *workers, *cancelAfter); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "myotel-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers int, cancelAfter time.Duration) error {
	cfg, err := loadDemoConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := myotel.Init(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	// Root context: a span for the whole demo run plus a cancelable scope.
	rootStd, rootSpan := myotel.Start(ctx, "demo.request")
	root, guard := myotel.New(rootStd, myotel.CancelNew)
	defer guard.End()

	myotel.InsertBusinessData(root, requestInfo{ID: "req-0001", Source: "demo"})
	root.SetSpanAttributes(attribute.Int("demo.workers", workers))

	if cancelAfter > 0 {
		time.AfterFunc(cancelAfter, guard.Cancel)
	}

	// Cancel the scope if the process receives a signal.
	go func() {
		<-ctx.Done()
		guard.Cancel()
	}()

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(root, i)
		}()
	}
	wg.Wait()

	if root.Canceled() {
		rootSpan.AddEvent("demo.canceled")
		fmt.Println("demo: root scope canceled before all workers finished")
	} else {
		fmt.Println("demo: all workers finished")
	}

	return nil
}

// runWorker derives a child context that inherits the root's cancellation
// and reads the shared business data.
func runWorker(root *myotel.Context, id int) {
	child, guard := root.StartChild(fmt.Sprintf("demo.worker.%d", id), myotel.CancelInherit)
	defer guard.End()

	info, ok := myotel.GetBusinessData[requestInfo](child)
	if ok {
		child.SetSpanAttributes(attribute.String("demo.request.id", info.ID))
	}

	// Simulated work, interruptible by the shared scope.
	work := time.After(time.Duration(100+50*id) * time.Millisecond)
	if scope := child.CancelScope(); scope != nil {
		select {
		case <-work:
			child.AddSpanEvent("demo.work.done")
		case <-scope.Done():
			child.AddSpanEvent("demo.work.interrupted")
		}

		return
	}

	<-work
	child.AddSpanEvent("demo.work.done")
}

// loadDemoConfig reads the config file, or falls back to a console-exporter
// setup suitable for local runs.
func loadDemoConfig(path string) (*myotel.TelemetryConfig, error) {
	if path != "" {
		return myotel.LoadConfig(path)
	}

	enabled := true

	return &myotel.TelemetryConfig{
		Enabled:     &enabled,
		ServiceName: "myotel-demo",
		Traces: &myotel.TracesConfig{
			Exporter: "console",
		},
	}, nil
}
