package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hako/durafmt"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/drummer"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/music/markov"
	"github.com/Conceptual-Machines/magda-composer/internal/music/notation"
	"github.com/Conceptual-Machines/magda-composer/internal/music/synth"
	"github.com/Conceptual-Machines/magda-composer/internal/music/theory"
	"github.com/Conceptual-Machines/magda-composer/internal/music/voicelead"
	"github.com/Conceptual-Machines/magda-composer/internal/storage"
)

const (
	defaultTempo         = 120.0
	defaultBeatsPerChord = 4.0
	defaultKey           = "C major"

	// MaxLoops bounds how often a track or drum pattern repeats.
	MaxLoops = 64
)

// TrackType selects how a track's material is turned into events
type TrackType string

const (
	TrackNotation  TrackType = "notation"
	TrackMarkov    TrackType = "markov"
	TrackVoiceLead TrackType = "voicelead"
	TrackDrums     TrackType = "drums"
)

// Track is one pattern placed on the render timeline
type Track struct {
	Type       TrackType `json:"type"`
	Instrument string    `json:"instrument,omitempty"`
	StartBeat  float64   `json:"start_beat,omitempty"`
	Transpose  int       `json:"transpose,omitempty"`
	Loops      int       `json:"loops,omitempty"`

	Notation      string            `json:"notation,omitempty"`
	Markov        *markov.Config    `json:"markov,omitempty"`
	Key           string            `json:"key,omitempty"`
	VoiceLead     *voicelead.Config `json:"voicelead,omitempty"`
	BeatsPerChord float64           `json:"beats_per_chord,omitempty"`
	Drums         string            `json:"drums,omitempty"`
}

// RenderRequest is raw events and/or pattern tracks to synthesize
type RenderRequest struct {
	Tempo  float64           `json:"tempo,omitempty"`
	Events []synth.NoteEvent `json:"events,omitempty"`
	Tracks []Track           `json:"tracks,omitempty"`
	Seed   *uint64           `json:"seed,omitempty"`
	Store  bool              `json:"store,omitempty"`

	UserID    string `json:"-"`
	RequestID string `json:"-"`
}

// TrackSummary reports what a track contributed
type TrackSummary struct {
	Type     TrackType `json:"type"`
	Events   int       `json:"events"`
	Beats    float64   `json:"beats"`
	Fallback bool      `json:"fallback,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// RenderResult is a finished render
type RenderResult struct {
	ID         string          `json:"id"`
	WAV        []byte          `json:"-"`
	SampleRate int             `json:"sample_rate"`
	Samples    int             `json:"samples"`
	Seconds    float64         `json:"seconds"`
	Peak       float64         `json:"peak"`
	Events     int             `json:"events"`
	Tracks     []TrackSummary  `json:"tracks,omitempty"`
	Size       string          `json:"size"`
	RenderTime string          `json:"render_time"`
	Object     *storage.Object `json:"object,omitempty"`
}

// RenderLimitError means the timeline exceeds the configured maximum
type RenderLimitError struct {
	Seconds float64
	Max     float64
}

func (e *RenderLimitError) Error() string {
	return fmt.Sprintf("render would be %.1fs long, limit is %.0fs", e.Seconds, e.Max)
}

// ErrNothingToRender is returned when a request yields no events
var ErrNothingToRender = errors.New("nothing to render: no events or tracks")

// ErrTooManyLoops is returned when a loop count exceeds MaxLoops
var ErrTooManyLoops = fmt.Errorf("loops must be at most %d", MaxLoops)

// CheckLoops rejects loop counts above MaxLoops. Zero and below mean one pass.
func CheckLoops(loops int) error {
	if loops > MaxLoops {
		return fmt.Errorf("%w, got %d", ErrTooManyLoops, loops)
	}
	return nil
}

// RenderService lays out tracks, synthesizes and stores renders
type RenderService struct {
	sampleRate int
	maxSeconds float64
	store      storage.Store
	records    *RecordsService
	cloudwatch *metrics.Client
	sentry     *metrics.SentryMetrics
}

func NewRenderService(cfg *config.Config, store storage.Store, records *RecordsService, cloudwatch *metrics.Client) *RenderService {
	return &RenderService{
		sampleRate: cfg.SampleRate,
		maxSeconds: cfg.MaxRenderSeconds,
		store:      store,
		records:    records,
		cloudwatch: cloudwatch,
		sentry:     metrics.NewSentryMetrics(),
	}
}

// BuildEvents converts raw events and tracks into one event list. Raw
// events are taken as-is; tracks are laid out at the request tempo.
func BuildEvents(req *RenderRequest) ([]synth.NoteEvent, []TrackSummary, error) {
	tempo := req.Tempo
	if tempo <= 0 {
		tempo = defaultTempo
	}

	events := append([]synth.NoteEvent(nil), req.Events...)
	summaries := make([]TrackSummary, 0, len(req.Tracks))

	for i, track := range req.Tracks {
		var seed *uint32
		if req.Seed != nil {
			s := uint32(*req.Seed) ^ uint32(*req.Seed>>32) + uint32(i)
			seed = &s
		}

		trackEvents, summary, err := layoutTrack(track, tempo, seed)
		if err != nil {
			return nil, nil, fmt.Errorf("tracks[%d] (%s): %w", i, track.Type, err)
		}
		events = append(events, trackEvents...)
		summaries = append(summaries, summary)
	}
	return events, summaries, nil
}

func layoutTrack(track Track, tempo float64, seed *uint32) ([]synth.NoteEvent, TrackSummary, error) {
	summary := TrackSummary{Type: track.Type}
	if err := CheckLoops(track.Loops); err != nil {
		return nil, summary, err
	}
	secondsPerBeat := 60 / tempo
	start := track.StartBeat * secondsPerBeat
	loops := max(track.Loops, 1)

	var events []synth.NoteEvent
	switch track.Type {
	case TrackNotation:
		elements, err := notation.ParsePattern(track.Notation)
		if err != nil {
			return nil, summary, err
		}
		offset := start
		for loop := 0; loop < loops; loop++ {
			opts := LayoutOptions{
				Tempo:        tempo,
				StartSeconds: offset,
				Instrument:   track.Instrument,
				Transpose:    track.Transpose,
			}
			if seed != nil {
				s := *seed + uint32(loop)
				opts.Seed = &s
			}
			layout, err := LayoutPattern(elements, opts)
			if err != nil {
				return nil, summary, err
			}
			events = append(events, layout.Events...)
			offset += layout.Beats * secondsPerBeat
			summary.Beats += layout.Beats
		}

	case TrackMarkov:
		if track.Markov == nil {
			return nil, summary, fmt.Errorf("markov config is required")
		}
		key, err := theory.ParseKey(keyOrDefault(track.Key))
		if err != nil {
			return nil, summary, err
		}
		cfg := *track.Markov
		if seed != nil && cfg.Seed == nil {
			cfg.Seed = seed
		}
		result, err := markov.Generate(cfg, key)
		if err != nil {
			return nil, summary, err
		}
		loopBeats := result.TotalBeats()
		for loop := 0; loop < loops; loop++ {
			for _, n := range result.Pitched() {
				events = append(events, synth.NoteEvent{
					Pitch:      theory.MIDIToPitch(theory.ClampMIDI(*n.MIDI + track.Transpose)),
					Time:       start + (float64(loop)*loopBeats+n.StartBeat)*secondsPerBeat,
					Duration:   n.DurationBeats * secondsPerBeat,
					Velocity:   n.Velocity,
					Instrument: track.Instrument,
				})
			}
		}
		summary.Beats = loopBeats * float64(loops)

	case TrackVoiceLead:
		if track.VoiceLead == nil {
			return nil, summary, fmt.Errorf("voicelead config is required")
		}
		solved, err := SolveOrFallback(*track.VoiceLead)
		if err != nil {
			return nil, summary, err
		}
		voicings := solved.Voicings
		summary.Warnings = solved.Warnings
		summary.Fallback = solved.Fallback

		beatsPerChord := track.BeatsPerChord
		if beatsPerChord <= 0 {
			beatsPerChord = defaultBeatsPerChord
		}
		for i, v := range voicings {
			for _, midi := range v.Notes {
				events = append(events, synth.NoteEvent{
					Pitch:      theory.MIDIToPitch(theory.ClampMIDI(midi + track.Transpose)),
					Time:       start + float64(i)*beatsPerChord*secondsPerBeat,
					Duration:   beatsPerChord * secondsPerBeat,
					Velocity:   defaultNoteVelocity,
					Instrument: track.Instrument,
				})
			}
		}
		summary.Beats = float64(len(voicings)) * beatsPerChord

	case TrackDrums:
		parser, err := drummer.NewDSLParser()
		if err != nil {
			return nil, summary, err
		}
		patterns, err := parser.ParseDSL(track.Drums)
		if err != nil {
			return nil, summary, err
		}
		for _, ev := range drummer.Events(patterns, tempo, loops) {
			ev.Time += start
			events = append(events, ev)
		}
		summary.Beats = drummer.Beats(patterns) * float64(loops)

	default:
		return nil, summary, fmt.Errorf("unknown track type %q (allowed: notation, markov, voicelead, drums)", track.Type)
	}

	summary.Events = len(events)
	return events, summary, nil
}

// VoiceLeadResult is a solved progression. Fallback marks a root-position
// substitute for a progression the solver could not voice.
type VoiceLeadResult struct {
	voicelead.Result
	Fallback bool `json:"fallback"`
}

// SolveOrFallback voices a progression, falling back to root position when
// some chord cannot be voiced in range.
func SolveOrFallback(cfg voicelead.Config) (*VoiceLeadResult, error) {
	result, err := voicelead.Solve(cfg)
	if err == nil {
		return &VoiceLeadResult{Result: *result}, nil
	}

	var noVoicing *voicelead.NoVoicingError
	if !errors.As(err, &noVoicing) {
		return nil, err
	}

	log.Printf("⚠️  %v, falling back to root position", err)
	voicings, fbErr := voicelead.RootPosition(cfg.Progression, cfg.Voices)
	if fbErr != nil {
		return nil, fbErr
	}
	return &VoiceLeadResult{
		Result: voicelead.Result{
			Voicings: voicings,
			Warnings: []string{err.Error()},
		},
		Fallback: true,
	}, nil
}

func keyOrDefault(key string) string {
	if key == "" {
		return defaultKey
	}
	return key
}

// Render synthesizes a request to WAV, stores it when asked and records it
func (s *RenderService) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "render")
	defer transaction.Finish()
	ctx = transaction.Context()

	span := transaction.StartChild("render.layout")
	events, summaries, err := BuildEvents(req)
	span.Finish()
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}
	if len(events) == 0 {
		transaction.SetTag("success", "false")
		return nil, ErrNothingToRender
	}

	if length := synth.Timeline(events) + synth.TailSeconds; s.maxSeconds > 0 && length > s.maxSeconds {
		transaction.SetTag("success", "false")
		return nil, &RenderLimitError{Seconds: length, Max: s.maxSeconds}
	}

	renderer := synth.NewRenderer(synth.Options{SampleRate: s.sampleRate, NoiseSeed: req.Seed})

	span = transaction.StartChild("render.synth")
	samples := renderer.Render(events)
	span.Finish()

	wav := synth.EncodeWAV(samples, renderer.SampleRate())
	elapsed := time.Since(startTime)
	seconds := float64(len(samples)) / float64(renderer.SampleRate())

	result := &RenderResult{
		ID:         uuid.New().String(),
		WAV:        wav,
		SampleRate: renderer.SampleRate(),
		Samples:    len(samples),
		Seconds:    seconds,
		Peak:       synth.Peak(samples),
		Events:     len(events),
		Tracks:     summaries,
		Size:       humanize.Bytes(uint64(len(wav))),
		RenderTime: durafmt.Parse(elapsed).LimitFirstN(2).String(),
	}

	if req.Store && s.store != nil {
		span = transaction.StartChild("render.store")
		obj, err := s.store.Put(ctx, storage.RenderKey(result.ID), wav)
		span.Finish()
		if err != nil {
			transaction.SetTag("success", "false")
			return nil, fmt.Errorf("failed to store render: %w", err)
		}
		result.Object = obj
	}

	s.record(ctx, req, result, elapsed)

	transaction.SetTag("success", "true")
	s.sentry.RecordRender(ctx, len(events), seconds, elapsed)
	s.cloudwatch.RecordRender(elapsed, seconds, len(wav), result.Object != nil)

	logger.Info("Render complete", logger.Fields{
		"render_id":  result.ID,
		"request_id": req.RequestID,
		"events":     len(events),
		"seconds":    seconds,
		"size":       result.Size,
		"took":       result.RenderTime,
	})
	return result, nil
}

// record persists the render; failures are logged and do not fail the render.
func (s *RenderService) record(ctx context.Context, req *RenderRequest, result *RenderResult, elapsed time.Duration) {
	if !s.records.Enabled() {
		return
	}

	render := &models.Render{
		ID:              result.ID,
		UserID:          req.UserID,
		RequestID:       req.RequestID,
		EventCount:      result.Events,
		TrackCount:      len(req.Tracks),
		SampleRate:      result.SampleRate,
		Samples:         result.Samples,
		DurationSeconds: result.Seconds,
		Bytes:           len(result.WAV),
		Peak:            result.Peak,
		Seed:            req.Seed,
		RenderMS:        int(elapsed.Milliseconds()),
	}
	if result.Object != nil {
		render.StorageKey = result.Object.Key
		render.Location = result.Object.Location
	}

	if err := s.records.SaveRender(ctx, render); err != nil {
		logger.Error("Failed to save render record", err, logger.Fields{"render_id": result.ID})
	}
}

// GetRender looks up a stored render record
func (s *RenderService) GetRender(ctx context.Context, id string) (*models.Render, error) {
	return s.records.GetRender(ctx, id)
}
