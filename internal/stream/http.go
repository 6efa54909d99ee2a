package stream

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"

	"github.com/overtonehq/sidechain/internal/audio"
)

// HTTPHandler serves the monitor mix as a chunked MP3 stream. Each
// connection spawns an FFmpeg process encoding PCM to MP3 in real time.
type HTTPHandler struct {
	broadcaster *Broadcaster
	bitrateKbps int
}

// NewHTTPHandler creates an HTTP monitor-stream handler.
func NewHTTPHandler(b *Broadcaster, bitrateKbps int) *HTTPHandler {
	if bitrateKbps <= 0 {
		bitrateKbps = 192
	}
	return &HTTPHandler{broadcaster: b, bitrateKbps: bitrateKbps}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", "sidechain monitor")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "s16le",
		"-ar", fmt.Sprint(audio.SampleRate),
		"-ac", fmt.Sprint(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", h.bitrateKbps),
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Printf("Monitor stream: stdin pipe error: %v", err)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Printf("Monitor stream: stdout pipe error: %v", err)
		return
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Monitor stream: ffmpeg start error: %v", err)
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("Monitor listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer log.Printf("Monitor listener disconnected")

	// Feed PCM frames to FFmpeg
	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.done:
				return
			case frame, ok := <-listener.C:
				if !ok {
					return
				}
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	// Read MP3 from FFmpeg and write to the HTTP response
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("Monitor stream: ffmpeg read error: %v", err)
			}
			break
		}
	}

	cmd.Wait()
}
