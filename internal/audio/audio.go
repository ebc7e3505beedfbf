// Package audio plays short synthesized cues so the installer can be followed by ear.
package audio

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"
)

const sampleRate beep.SampleRate = 44100

// Cue names
const (
	Select  = "select"
	Success = "success"
	Error   = "error"
)

type note struct {
	freq float64
	dur  time.Duration
}

var cues = map[string][]note{
	Select:  {{freq: 880, dur: 40 * time.Millisecond}},
	Success: {{freq: 660, dur: 90 * time.Millisecond}, {freq: 880, dur: 90 * time.Millisecond}, {freq: 1320, dur: 160 * time.Millisecond}},
	Error:   {{freq: 330, dur: 160 * time.Millisecond}, {freq: 220, dur: 280 * time.Millisecond}},
}

const gap = 15 * time.Millisecond

var (
	speakerOnce  sync.Once
	speakerReady bool
	muted        bool
	log          = zerolog.Nop()
)

// Init configures the audio package
func Init(mute bool, logger zerolog.Logger) {
	muted = mute
	log = logger
}

// Names returns the available cue names
func Names() []string {
	names := make([]string, 0, len(cues))
	for name := range cues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cue builds the streamer for a named cue
func Cue(name string) (beep.Streamer, error) {
	notes, ok := cues[name]
	if !ok {
		return nil, fmt.Errorf("unknown sound %q", name)
	}

	parts := make([]beep.Streamer, 0, len(notes)*2)
	for i, n := range notes {
		tone, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("failed to generate tone: %w", err)
		}
		parts = append(parts, beep.Take(sampleRate.N(n.dur), tone))
		if i < len(notes)-1 {
			parts = append(parts, beep.Silence(sampleRate.N(gap)))
		}
	}

	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   -2,
		Silent:   false,
	}, nil
}

// CueLength returns how many samples a cue lasts
func CueLength(name string) int {
	total := 0
	notes := cues[name]
	for i, n := range notes {
		total += sampleRate.N(n.dur)
		if i < len(notes)-1 {
			total += sampleRate.N(gap)
		}
	}
	return total
}

func ensureSpeakerInitialized() bool {
	speakerOnce.Do(func() {
		log.Debug().Msg("setting up audio")
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			log.Debug().Err(err).Msg("audio unavailable")
			return
		}
		speakerReady = true
	})
	return speakerReady
}

// Play plays a cue synchronously (blocks until complete)
func Play(name string) {
	if muted {
		return
	}
	streamer, err := Cue(name)
	if err != nil {
		log.Debug().Err(err).Msg("sound skipped")
		return
	}
	if !ensureSpeakerInitialized() {
		return
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
}

// PlayAsync starts a cue and returns immediately
func PlayAsync(name string) {
	if muted {
		return
	}
	streamer, err := Cue(name)
	if err != nil {
		log.Debug().Err(err).Msg("sound skipped")
		return
	}
	if !ensureSpeakerInitialized() {
		return
	}
	speaker.Play(streamer)
}

// StopAll stops all currently playing sounds
func StopAll() {
	if !speakerReady {
		return
	}
	speaker.Clear()
}

// Player adapts the package functions to the prompt and install sound interfaces
type Player struct{}

// Play plays a cue synchronously
func (Player) Play(name string) { Play(name) }

// PlayAsync plays a cue in the background
func (Player) PlayAsync(name string) { PlayAsync(name) }
