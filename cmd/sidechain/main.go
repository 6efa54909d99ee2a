package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/overtonehq/sidechain/internal/analysis"
	"github.com/overtonehq/sidechain/internal/audio"
	"github.com/overtonehq/sidechain/internal/catalog"
	"github.com/overtonehq/sidechain/internal/config"
	"github.com/overtonehq/sidechain/internal/engine"
	"github.com/overtonehq/sidechain/internal/generate"
	"github.com/overtonehq/sidechain/internal/mixer"
	"github.com/overtonehq/sidechain/internal/stream"
	"github.com/overtonehq/sidechain/internal/trigger"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("sidechain starting up...")

	// Playback sink + analysis engine
	mix := mixer.New()
	eng := engine.New(mix, engine.Options{
		FFTSize:          cfg.FFTSize,
		WindowCap:        cfg.WindowCap,
		Cadence:          cfg.Cadence,
		TriggerThreshold: cfg.TriggerThreshold,
	})

	// Sample catalog
	if entries, err := catalog.LoadDir(cfg.SampleDir); err != nil {
		log.Printf("Catalog: %v (starting with an empty catalog)", err)
	} else {
		eng.ReplaceSamples(entries)
	}

	// Trigger events out to SSE subscribers
	events := stream.NewEventHub()
	eng.SetOnTriggered(func(id string, snap analysis.Snapshot, pc trigger.PlaybackConfig) {
		events.Publish(stream.TriggerEvent{
			SampleID:    id,
			At:          time.Now(),
			Volume:      pc.Volume,
			PitchShift:  pc.PitchShiftSemitones,
			ContextKey:  snap.Key,
			Scale:       snap.Scale,
			Energy:      snap.Energy,
			BeatDensity: snap.BeatDensity,
		})
	})

	// Audio source: generation service, or a looped local file
	source := generate.NewSource()
	if cfg.InputFile != "" {
		source.SetFallbackFile(cfg.InputFile)
		log.Printf("Source: looping %s when no generated track is queued", cfg.InputFile)
	}
	if cfg.GenAPIURL != "" {
		client := generate.NewClient(cfg.GenAPIURL, cfg.GenAPIKey, cfg.GenOutputDir)

		healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Minute)
		if err := client.WaitForHealthy(healthCtx); err != nil {
			healthCancel()
			log.Fatalf("Generation API not available: %v", err)
		}
		healthCancel()

		producer := &generate.Producer{
			Client:      client,
			Source:      source,
			Caption:     cfg.GenCaption,
			Duration:    cfg.TrackDuration,
			Steps:       cfg.InferenceSteps,
			AudioFormat: cfg.AudioFormat,
			BufferAhead: cfg.BufferAhead,
		}
		go producer.Run(ctx)
	} else if cfg.InputFile == "" {
		log.Fatal("No audio source: set SIDECHAIN_GEN_API_URL or SIDECHAIN_INPUT_FILE")
	}
	go source.Run(ctx)

	// Monitor mix fan-out
	broadcaster := stream.NewBroadcaster(0)
	monitorCh := make(chan []int16, 100)
	go broadcaster.Run(ctx, monitorCh)

	// Main frame loop: analyze, mix triggered voices, publish the monitor
	go func() {
		defer close(monitorCh)
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-source.Frames():
				if !ok {
					return
				}
				eng.OnBuffer(frame)
				out := mix.Mix(frame)
				select {
				case monitorCh <- audio.ToInterleaved(out, audio.Channels):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	mux := http.NewServeMux()
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, cfg.MonitorBitrate))
	mux.Handle("/offer", webrtcHandler)
	mux.Handle("/api/events", events)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		snap, cycles := eng.LastSnapshot()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(map[string]any{
			"samples":           eng.SampleCount(),
			"analysis_cycles":   cycles,
			"queued_audio_ms":   eng.QueuedDuration().Milliseconds(),
			"active_voices":     mix.ActiveVoices(),
			"source_queue":      source.QueueSize(),
			"http_listeners":    broadcaster.ListenerCount(),
			"webrtc_listeners":  webrtcHandler.PeerCount(),
			"event_subscribers": events.SubscriberCount(),
			"context": map[string]any{
				"energy":       snap.Energy,
				"beat_density": snap.BeatDensity,
				"onset":        snap.OnsetDetected,
				"key":          snap.Key,
				"scale":        snap.Scale,
				"dominant_hz":  snap.DominantFrequencies,
			},
		})
	})

	mux.HandleFunc("/api/samples", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req []*catalog.Entry
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid catalog", http.StatusBadRequest)
			return
		}

		var entries []*catalog.Entry
		for _, entry := range req {
			if entry.File == "" {
				log.Printf("Catalog: rejecting %q: no audio file", entry.Name)
				continue
			}
			buf, err := audio.DecodeFile(entry.File)
			if err != nil {
				log.Printf("Catalog: rejecting %s: %v", entry.File, err)
				continue
			}
			if entry.ID == "" {
				entry.ID = uuid.NewString()
			}
			entry.Buffer = buf
			entries = append(entries, entry)
		}

		eng.ReplaceSamples(entries)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "samples": len(entries)})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("sidechain live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
