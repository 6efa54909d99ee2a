package generate

import (
	"context"
	"log"
	"time"

	"github.com/overtonehq/sidechain/internal/audio"
)

// Source decodes queued tracks and emits their audio as 20ms planar frames
// at real-time rate, the shape the engine and mixer consume.
type Source struct {
	trackCh  chan string
	frameCh  chan *audio.Buffer
	fallback string // file re-queued whenever the track queue runs dry
}

// NewSource creates an idle source.
func NewSource() *Source {
	return &Source{
		trackCh: make(chan string, 8),
		frameCh: make(chan *audio.Buffer, 100),
	}
}

// Frames returns the channel of outgoing frames.
func (s *Source) Frames() <-chan *audio.Buffer {
	return s.frameCh
}

// Enqueue adds a decoded-audio file to the playback queue.
func (s *Source) Enqueue(path string) {
	s.trackCh <- path
}

// QueueSize returns the number of tracks waiting to play.
func (s *Source) QueueSize() int {
	return len(s.trackCh)
}

// SetFallbackFile makes the source loop the given file whenever no
// generated track is queued, so the engine always has signal to chew on.
func (s *Source) SetFallbackFile(path string) {
	s.fallback = path
}

// Run decodes and streams queued tracks until ctx is cancelled.
func (s *Source) Run(ctx context.Context) {
	defer close(s.frameCh)

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()

	for {
		path := s.nextTrack(ctx)
		if path == "" {
			return
		}

		buf, err := audio.DecodeFile(path)
		if err != nil {
			log.Printf("Source: decode failed %s: %v", path, err)
			continue
		}
		log.Printf("Source: streaming %s (%s)", path, buf.Duration().Round(time.Second))

		if !s.streamTrack(ctx, ticker, buf) {
			return
		}
	}
}

// nextTrack blocks for the next queued path, falling back to the loop file.
// Returns "" on cancellation.
func (s *Source) nextTrack(ctx context.Context) string {
	select {
	case <-ctx.Done():
		return ""
	case path := <-s.trackCh:
		return path
	default:
	}
	if s.fallback != "" {
		return s.fallback
	}
	select {
	case <-ctx.Done():
		return ""
	case path := <-s.trackCh:
		return path
	}
}

// streamTrack slices the decoded track into frames and sends them at the
// ticker's pace. Returns false on cancellation.
func (s *Source) streamTrack(ctx context.Context, ticker *time.Ticker, buf *audio.Buffer) bool {
	total := buf.Len()
	for pos := 0; pos < total; pos += audio.FrameSize {
		end := pos + audio.FrameSize
		if end > total {
			end = total
		}

		frame := audio.NewBuffer(buf.SampleRate, buf.Channels(), end-pos)
		for c := range frame.Data {
			copy(frame.Data[c], buf.Data[c][pos:end])
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
		select {
		case s.frameCh <- frame:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// Producer keeps the source's queue topped up from the generation API, in
// the same buffered-ahead style as a radio pre-generating tracks.
type Producer struct {
	Client      *Client
	Source      *Source
	Caption     string
	Duration    int // seconds per generated track
	Steps       int
	AudioFormat string
	BufferAhead int
}

// Run generates tracks until ctx is cancelled.
func (p *Producer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if p.Source.QueueSize() >= p.BufferAhead {
			time.Sleep(time.Second)
			continue
		}

		taskID, err := p.Client.Generate(ctx, Request{
			Caption:        p.Caption,
			Lyrics:         "[Instrumental]",
			Duration:       p.Duration,
			InferenceSteps: p.Steps,
			Seed:           -1,
			BatchSize:      1,
			AudioFormat:    p.AudioFormat,
		})
		if err != nil {
			log.Printf("Producer: generate error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		path, err := p.Client.PollUntilDone(ctx, taskID, 3*time.Second)
		if err != nil {
			log.Printf("Producer: poll error for task %s: %v", taskID, err)
			continue
		}

		log.Printf("Producer: track ready [%s]", taskID)
		p.Source.Enqueue(path)
	}
}
