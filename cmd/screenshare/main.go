package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/broadcast"
	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/rtc"
	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/settings"
	sig "github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/signal"
)

// DefaultSignalServer is the default signal server for broadcast sessions
const DefaultSignalServer = "ws://localhost:8080"

// Config holds runtime configuration
type Config struct {
	ServeMode bool
	Port      int
	SignalURL string
	Room      string
	Preset    string
	FPS       int
	Audio     bool
	Save      bool
	Help      bool

	// TURN server configuration
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool // Force TURN relay (no direct P2P)
}

func parseFlags() Config {
	config := Config{}

	flag.BoolVar(&config.ServeMode, "serve", false, "Run as signal server only")
	flag.BoolVar(&config.ServeMode, "s", false, "Run as signal server only (shorthand)")

	flag.IntVar(&config.Port, "port", 8080, "Signal server port")
	flag.IntVar(&config.Port, "p", 8080, "Signal server port (shorthand)")

	flag.StringVar(&config.SignalURL, "signal", "", "Signal server URL (overrides saved setting)")
	flag.StringVar(&config.Room, "room", "", "Room code (generated if omitted)")

	flag.StringVar(&config.Preset, "preset", "", "Capture preset (low|medium|high|ultra)")
	flag.IntVar(&config.FPS, "fps", 0, "Target framerate (overrides preset)")
	flag.BoolVar(&config.Audio, "audio", false, "Also share microphone audio")
	flag.BoolVar(&config.Save, "save", false, "Persist the resolved settings as defaults")

	// TURN server flags
	flag.StringVar(&config.TURNServer, "turn", "", "TURN server URL (e.g., turn:turn.example.com:3478)")
	flag.StringVar(&config.TURNUser, "turn-user", "", "TURN server username")
	flag.StringVar(&config.TURNPass, "turn-pass", "", "TURN server password")
	flag.BoolVar(&config.ForceRelay, "force-relay", false, "Force TURN relay (disable direct P2P)")

	flag.BoolVar(&config.Help, "help", false, "Show help")
	flag.BoolVar(&config.Help, "h", false, "Show help (shorthand)")

	flag.Parse()

	return config
}

func printHelp() {
	fmt.Println(`screenshare - live screen broadcast for proctored assessments

Usage: screenshare [options]

By default, screenshare connects to the signal server at:
  ` + DefaultSignalServer + `

Options:
  --room <code>          Room code to broadcast into (generated if omitted)
  --signal <url>         Signal server URL (overrides saved setting)
  --serve, -s            Run as signal server only
  --port, -p <port>      Signal server port (default: 8080)
  --preset <name>        Capture preset: low, medium, high, ultra
  --fps <rate>           Target framerate (overrides preset)
  --audio                Also share microphone audio
  --save                 Persist the resolved settings as defaults
  --help, -h             Show help

Network Options:
  --turn <url>           TURN server URL (e.g., turn:turn.example.com:3478)
  --turn-user <user>     TURN server username
  --turn-pass <pass>     TURN server password
  --force-relay          Force TURN relay (disable direct P2P connections)

Examples:
  screenshare --serve            # Run a local signal server
  screenshare --room CALM-OTTER-07
  screenshare --preset high --audio

TUI Controls:
  s             Stop sharing
  q             Quit`)
}

func main() {
	config := parseFlags()

	if config.Help {
		printHelp()
		return
	}

	// Server-only mode
	if config.ServeMode {
		runSignalServer(config.Port)
		return
	}

	manager, err := settings.NewManager()
	if err != nil {
		log.Fatalf("Failed to locate settings: %v", err)
	}
	saved, err := manager.Load()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
	}

	opts, resolved := resolveOptions(config, saved)

	if config.Save {
		if err := manager.Save(resolved); err != nil {
			log.Printf("Failed to save settings: %v", err)
		}
	}

	room := sig.NormalizeRoomCode(config.Room)
	if room == "" {
		room = sig.GenerateRoomCode()
	}
	if !sig.ValidateRoomCode(room) {
		log.Fatalf("Invalid room code: %s", room)
	}
	opts.Endpoint = endpointURL(resolved.SignalURL, room)

	factory := rtc.NewFactory(rtc.ICEConfig{
		TURNServer: config.TURNServer,
		TURNUser:   config.TURNUser,
		TURNPass:   config.TURNPass,
		ForceRelay: config.ForceRelay,
	})

	b, err := broadcast.New(broadcast.Config{
		Device:  rtc.Device{},
		Factory: factory,
	})
	if err != nil {
		log.Fatalf("Failed to create broadcaster: %v", err)
	}

	if err := RunTUI(b, opts, room); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
}

// resolveOptions merges saved settings and command line flags into the
// session options, flags winning.
func resolveOptions(config Config, saved settings.UserSettings) (broadcast.Options, settings.UserSettings) {
	resolved := saved

	if config.SignalURL != "" {
		resolved.SignalURL = config.SignalURL
	}
	if resolved.SignalURL == "" {
		resolved.SignalURL = DefaultSignalServer
	}

	preset := settings.CapturePresets[resolved.Preset]
	if config.Preset != "" {
		preset = settings.PresetByName(config.Preset)
		for i, p := range settings.CapturePresets {
			if p.Name == preset.Name {
				resolved.Preset = i
			}
		}
	}

	fps := preset.FrameRate
	if config.FPS > 0 {
		fps = config.FPS
	}
	resolved.FrameRate = fps
	resolved.ShareAudio = resolved.ShareAudio || config.Audio

	return broadcast.Options{
		Capture: broadcast.CaptureOptions{
			Width:      preset.Width,
			Height:     preset.Height,
			FrameRate:  fps,
			ShareAudio: resolved.ShareAudio,
		},
	}, resolved
}

// endpointURL builds the broadcaster's control channel URL for a room
func endpointURL(base, room string) string {
	return fmt.Sprintf("%s/ws/%s?role=%s", strings.TrimRight(base, "/"), room, sig.RoleBroadcaster)
}

func runSignalServer(port int) {
	server := sig.NewServer()
	addr := fmt.Sprintf(":%d", port)

	fmt.Printf("Starting signal server on http://localhost%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
