package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/agrihelper/agrichat/internal/backend"
	"github.com/agrihelper/agrichat/internal/capture"
	"github.com/agrihelper/agrichat/internal/chat"
	"github.com/agrihelper/agrichat/internal/config"
	"github.com/agrihelper/agrichat/internal/domain"
	"github.com/agrihelper/agrichat/internal/history"
	"github.com/agrihelper/agrichat/internal/logging"
	"github.com/agrihelper/agrichat/internal/voice"
)

var (
	backendURL = flag.String("backend", "", "Backend base URL (overrides config)")
	language   = flag.String("lang", "", "Conversation language: ja or en (overrides config)")
)

func main() {
	flag.Parse()

	// Load .env if present
	for _, p := range []string{".env", "../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}
	if *language != "" {
		cfg.Chat.Language = *language
	}
	// Flag overrides bypass Load's validation; re-check them.
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	client := backend.New(cfg.Backend)
	submitter := voice.NewSubmitter(client)
	controller := capture.NewController(capture.NewMicrophone(cfg.Audio.SampleRate), cfg.Audio.ChunkInterval)

	var store *history.Store
	var opts []chat.Option
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Error().Err(err).Msg("history store unavailable; continuing without persistence")
			store = nil
		} else {
			defer store.Close()
			opts = append(opts, chat.WithRecorder(store))
		}
	}
	orch := chat.New(client, submitter, cfg.Chat.Language, opts...)

	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		controller.Cancel()
		cancel()
		os.Exit(0)
	}()

	app := &app{
		cfg:        cfg,
		client:     client,
		controller: controller,
		orch:       orch,
		store:      store,
		green:      color.New(color.FgGreen, color.Bold).SprintFunc(),
		cyan:       color.New(color.FgCyan, color.Bold).SprintFunc(),
		yellow:     color.New(color.FgYellow).SprintFunc(),
		red:        color.New(color.FgRed).SprintFunc(),
	}
	app.run(ctx)
}

type app struct {
	cfg        *config.Config
	client     *backend.Client
	controller *capture.Controller
	orch       *chat.Orchestrator
	store      *history.Store

	green, cyan, yellow, red func(a ...interface{}) string
}

func (a *app) run(ctx context.Context) {
	fmt.Println(a.green("🌾 AgriChat - Agriculture Helper"))
	fmt.Printf("Backend: %s, language: %s\n", a.cyan(a.cfg.Backend.BaseURL), a.cfg.Chat.Language)
	fmt.Println("Type a message and press Enter. /voice records from the microphone, /help lists commands.")
	fmt.Println()

	if _, err := a.client.Health(ctx); err != nil {
		fmt.Println(a.yellow("Warning: backend health check failed: " + err.Error()))
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(a.green("You: "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if a.command(ctx, scanner, line) {
				return
			}
			continue
		}

		appended, err := a.orch.SendText(ctx, line)
		a.render(appended, err)
	}
}

// command dispatches a slash command; returns true when the REPL should
// exit.
func (a *app) command(ctx context.Context, scanner *bufio.Scanner, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		a.help()

	case "/voice":
		a.voiceExchange(ctx, scanner)

	case "/weather":
		city, country := a.location(args)
		a.showJSON(a.client.CurrentWeather(ctx, city, country))

	case "/forecast":
		city, country := a.location(args)
		days := 3
		if len(args) >= 3 {
			if n, err := strconv.Atoi(args[2]); err == nil {
				days = n
			}
		}
		a.showJSON(a.client.Forecast(ctx, city, country, days))

	case "/crops":
		city, country := a.location(args)
		a.showJSON(a.client.CropRecommendations(ctx, city, country))

	case "/pests":
		city, country := a.location(nil)
		crop := "general"
		if len(args) > 0 {
			crop = args[0]
		}
		a.showJSON(a.client.PestRisk(ctx, city, country, crop))

	case "/season":
		city, country := a.location(args)
		a.showJSON(a.client.SeasonalAdvice(ctx, city, country))

	case "/irrigation":
		city, country := a.location(nil)
		crop, soil := "general", "general"
		if len(args) > 0 {
			crop = args[0]
		}
		if len(args) > 1 {
			soil = args[1]
		}
		a.showJSON(a.client.IrrigationAdvice(ctx, city, country, crop, soil))

	case "/calendar":
		city, country := a.location(args)
		a.showJSON(a.client.PlantingCalendar(ctx, city, country))

	case "/analyze":
		if len(args) == 0 {
			fmt.Println(a.yellow("usage: /analyze <message>"))
			break
		}
		a.showJSON(a.client.AnalyzeQuery(ctx, strings.Join(args, " ")))

	case "/location":
		if len(args) == 0 {
			loc := a.orch.Context().CurrentLocation
			if loc.IsZero() {
				fmt.Println("No location resolved yet.")
			} else {
				fmt.Printf("Current location: %s, %s\n", loc.City, loc.Country)
			}
			break
		}
		a.showJSON(a.client.SearchLocations(ctx, strings.Join(args, " "), 5))

	case "/history":
		a.showHistory(ctx, args)

	case "/status":
		a.showJSON(a.client.VoiceStatus(ctx))

	default:
		fmt.Println(a.yellow("unknown command " + cmd + "; /help lists commands"))
	}
	return false
}

// voiceExchange records until Enter, submits, and renders the exchange.
// Typing "c" cancels and discards the recording.
func (a *app) voiceExchange(ctx context.Context, scanner *bufio.Scanner) {
	if err := a.controller.Start(ctx); err != nil {
		fmt.Println(a.red(captureMessage(err)))
		return
	}

	fmt.Println(a.yellow("🎤 Recording... press Enter to stop, type c + Enter to cancel"))
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "c" {
		a.controller.Cancel()
		fmt.Println("Recording canceled.")
		return
	}

	rec, err := a.controller.Stop()
	if err != nil {
		fmt.Println(a.red(captureMessage(err)))
		return
	}
	fmt.Printf("Captured %d bytes (%s), submitting...\n", rec.Size(), rec.Duration.Round(10*time.Millisecond))

	appended, err := a.orch.SendVoice(ctx, rec)
	a.render(appended, err)
}

// showHistory prints the persisted transcript of the current session.
func (a *app) showHistory(ctx context.Context, args []string) {
	if a.store == nil {
		fmt.Println(a.yellow("history persistence is disabled; set history.path in the config"))
		return
	}
	sessionID := a.orch.Context().SessionID
	if sessionID == "" {
		fmt.Println("No conversation yet.")
		return
	}

	limit := 50
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	messages, err := a.store.ListBySession(ctx, sessionID, limit)
	if err != nil {
		fmt.Println(a.red("Error: " + err.Error()))
		return
	}
	for _, msg := range messages {
		fmt.Printf("%4d  %-16s %s\n", msg.Sequence, "["+string(msg.Role)+"]", msg.Content)
	}
}

// render prints the messages an exchange appended.
func (a *app) render(appended []domain.ChatMessage, err error) {
	for _, msg := range appended {
		switch msg.Role {
		case domain.RoleUser:
			if msg.IsVoice() {
				fmt.Printf("%s %s %s\n", a.green("You (voice):"), msg.Content,
					a.yellow(fmt.Sprintf("(confidence %.2f)", msg.Voice.Confidence)))
			}
		case domain.RoleLocationChange:
			fmt.Println(a.yellow("📍 " + msg.Content))
		case domain.RoleAssistant:
			fmt.Printf("%s %s\n", a.cyan("Assistant:"), msg.Content)
		case domain.RoleError:
			fmt.Println(a.red("Error: " + msg.Content))
		}
	}
	if err != nil && len(appended) == 0 {
		fmt.Println(a.red("Error: " + err.Error()))
	}
	fmt.Println()
}

func (a *app) showJSON(data any, err error) {
	if err != nil {
		fmt.Println(a.red("Error: " + err.Error()))
		return
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Println(a.red("Error: " + err.Error()))
		return
	}
	fmt.Println(string(out))
}

// location resolves the city/country for a command: explicit arguments
// first, then the conversation's resolved location, then the backend's
// defaults.
func (a *app) location(args []string) (string, string) {
	if len(args) >= 2 {
		return args[0], args[1]
	}
	loc := a.orch.Context().CurrentLocation
	if !loc.IsZero() {
		return loc.City, loc.Country
	}
	return "Tokyo", "JP"
}

func (a *app) help() {
	fmt.Println(`Commands:
  /voice                     record a voice message (Enter stops, c cancels)
  /weather [city country]    current weather with agricultural analysis
  /forecast [city country n] weather forecast
  /crops [city country]      crop recommendations
  /pests [crop]              pest risk assessment
  /season [city country]     seasonal advice
  /irrigation [crop soil]    irrigation recommendations
  /calendar [city country]   planting calendar
  /analyze <message>         classify a query without chatting
  /location [query]          show or search locations
  /history [n]               persisted transcript of this session
  /status                    backend voice capabilities
  /quit                      exit`)
}

// captureMessage maps capture errors onto user-facing text.
func captureMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Microphone access denied. Grant permission and try again."
	case errors.Is(err, capture.ErrDeviceNotFound):
		return "No microphone found. Connect one and try again."
	case errors.Is(err, capture.ErrUnsupportedFormat):
		return "Microphone does not support a usable audio format."
	case errors.Is(err, capture.ErrEmptyRecording):
		return "Recording was empty. Try again and speak into the microphone."
	case errors.Is(err, capture.ErrCaptureActive):
		return "A recording is already in progress."
	default:
		return "Recording failed: " + err.Error()
	}
}
