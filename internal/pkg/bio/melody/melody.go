// Package melody turns nucleotide sequences into short audio clips.
package melody

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSampleRate = 22050
	DefaultBeat       = 200 * time.Millisecond
	// MaxNotes bounds the length of a rendered clip.
	MaxNotes = 600

	MinBPM = 30
	MaxBPM = 600
	// MaxNoteDuration caps a single note, whatever the backend asked for.
	MaxNoteDuration = 4 * time.Second
	// MaxClip caps the whole rendered clip.
	MaxClip = 60 * time.Second
)

// BeatForTempo converts beats per minute to one note's length. The tempo is
// clamped to [MinBPM, MaxBPM].
func BeatForTempo(bpm float64) time.Duration {
	if math.IsNaN(bpm) {
		return DefaultBeat
	}
	bpm = math.Max(MinBPM, math.Min(MaxBPM, bpm))
	return time.Duration(float64(time.Minute) / bpm)
}

// Limit caps each note at MaxNoteDuration and drops notes once the clip
// would run past MaxClip. Non-positive durations fall back to DefaultBeat.
func Limit(notes []Note) []Note {
	out := make([]Note, 0, min(len(notes), MaxNotes))
	var total time.Duration
	for _, n := range notes {
		if len(out) == MaxNotes {
			break
		}
		switch {
		case n.Duration <= 0:
			n.Duration = DefaultBeat
		case n.Duration > MaxNoteDuration:
			n.Duration = MaxNoteDuration
		}
		if total+n.Duration > MaxClip {
			break
		}
		total += n.Duration
		out = append(out, n)
	}
	return out
}

type Note struct {
	Name     string
	Freq     float64
	Duration time.Duration
}

func (n Note) IsRest() bool { return n.Freq <= 0 }

var baseMapping = map[rune]string{
	'A': "A4",
	'C': "C4",
	'G': "G4",
	'T': "E4",
	'U': "E4",
}

// FromSequence maps each base to a note; anything that is not A, C, G, T or U
// becomes a rest. The result goes through Limit.
func FromSequence(seq string, beat time.Duration) []Note {
	if beat <= 0 {
		beat = DefaultBeat
	}
	notes := make([]Note, 0, min(len(seq), MaxNotes))
	for _, ch := range strings.ToUpper(seq) {
		if len(notes) == MaxNotes {
			break
		}
		name, ok := baseMapping[ch]
		if !ok {
			notes = append(notes, Note{Name: "rest", Duration: beat})
			continue
		}
		freq, _ := Frequency(name)
		notes = append(notes, Note{Name: name, Freq: freq, Duration: beat})
	}
	return Limit(notes)
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Frequency converts scientific pitch notation ("C4", "F#3", "Bb5") to Hz
// using A4 = 440 Hz equal temperament.
func Frequency(name string) (float64, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note %q", name)
	}
	semi, ok := semitones[byte(strings.ToUpper(name[:1])[0])]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", name)
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		semi++
		rest = rest[1:]
	case 'b':
		semi--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", name)
	}
	midi := (octave+1)*12 + semi
	return 440 * math.Pow(2, float64(midi-69)/12), nil
}

// Synthesize renders notes as sine tones in [-1, 1] with a short linear
// attack and release so adjacent notes do not click. Notes are passed
// through Limit first.
func Synthesize(notes []Note, sampleRate int) []float64 {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	attack := sampleRate * 5 / 1000
	release := sampleRate * 10 / 1000

	notes = Limit(notes)
	var total time.Duration
	for _, n := range notes {
		total += n.Duration
	}
	out := make([]float64, 0, int(total.Seconds()*float64(sampleRate))+len(notes))
	for _, n := range notes {
		count := int(n.Duration.Seconds() * float64(sampleRate))
		if n.IsRest() {
			out = append(out, make([]float64, count)...)
			continue
		}
		a, r := min(attack, count/2), min(release, count/2)
		for i := 0; i < count; i++ {
			env := 1.0
			switch {
			case a > 0 && i < a:
				env = float64(i) / float64(a)
			case r > 0 && i >= count-r:
				env = float64(count-i) / float64(r)
			}
			out = append(out, 0.5*env*math.Sin(2*math.Pi*n.Freq*float64(i)/float64(sampleRate)))
		}
	}
	return out
}
