// miccheck records a short sample from the default microphone, runs it
// through pre-submission validation, and reports the backend's voice
// capabilities. Use it to diagnose microphone or connectivity problems
// before a field session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/agrihelper/agrichat/internal/backend"
	"github.com/agrihelper/agrichat/internal/capture"
	"github.com/agrihelper/agrichat/internal/config"
	"github.com/agrihelper/agrichat/internal/logging"
	"github.com/agrihelper/agrichat/internal/voice"
)

var (
	duration  = flag.Duration("duration", 2*time.Second, "Recording duration")
	skipProbe = flag.Bool("offline", false, "Skip the backend capability probe")
)

func main() {
	flag.Parse()
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Setup(cfg.Logging.Level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	controller := capture.NewController(capture.NewMicrophone(cfg.Audio.SampleRate), cfg.Audio.ChunkInterval)

	fmt.Printf("Recording %s sample...\n", *duration)
	if err := controller.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "capture failed: %v\n", err)
		os.Exit(1)
	}
	time.Sleep(*duration)

	rec, err := controller.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "finalize failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Captured %d bytes, %s, %d chunks, format %s\n",
		rec.Size(), rec.Duration.Round(10*time.Millisecond), rec.Chunks, rec.MIMEType)

	validation := voice.Validate(rec)
	fmt.Printf("Validation: valid=%v\n", validation.Valid)
	for _, w := range validation.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range validation.Errors {
		fmt.Printf("  error: %s\n", e)
	}

	if *skipProbe {
		return
	}

	client := backend.New(cfg.Backend)
	status, err := client.VoiceStatus(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend voice status failed: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(status.VoiceCapabilities, "", "  ")
	fmt.Printf("Backend voice capabilities:\n%s\n", out)
}
