// Package media models media files and their streams during normalisation.
package media

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/levelwise/levelwise/internal/loudness"
)

// Kind tags a stream. Only audio streams carry measurement state and
// planner entry points; video and subtitle streams are mapped through
// untouched.
type Kind int

const (
	KindOther Kind = iota
	KindAudio
	KindVideo
	KindSubtitle
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindSubtitle:
		return "subtitle"
	default:
		return "other"
	}
}

// KindFromCodecType maps ffprobe's codec_type to a stream kind.
func KindFromCodecType(codecType string) Kind {
	switch codecType {
	case "audio":
		return KindAudio
	case "video":
		return KindVideo
	case "subtitle":
		return KindSubtitle
	default:
		return KindOther
	}
}

// Stream is one stream of a source media file.
type Stream struct {
	Kind  Kind
	Index int
	Path  string // parent file
}

func (s Stream) String() string {
	return fmt.Sprintf("<%s, %s stream %d>", filepath.Base(s.Path), s.Kind, s.Index)
}

// AudioStream is a stream that participates in normalisation. It owns its
// loudness statistics for the duration of the run: the measurement pass
// populates them, the planner reads them.
type AudioStream struct {
	Stream
	SampleRate int     // Hz, 0 unknown
	BitDepth   int     // bits, 0 unknown
	Duration   float64 // seconds, 0 unknown

	Stats loudness.Stats
}

// NewAudioStream constructs an audio stream. EBU measurement gates over
// 3-second windows, so shorter inputs are flagged up front as a known
// limitation.
func NewAudioStream(log *slog.Logger, s Stream, sampleRate, bitDepth int, duration float64, mode loudness.Mode) *AudioStream {
	if mode == loudness.ModeEBU && duration > 0 && duration <= 3 {
		log.Warn("audio stream is shorter than 3 seconds, normalisation may not work",
			slog.String("stream", s.String()),
			slog.Float64("duration_secs", duration))
	}
	return &AudioStream{
		Stream:     s,
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Duration:   duration,
	}
}

// PCMCodec selects the output PCM codec matching the stream's bit depth.
// Unknown or unsupported depths fall back to 16-bit.
func (a *AudioStream) PCMCodec(log *slog.Logger) string {
	switch {
	case a.BitDepth == 0:
		return "pcm_s16le"
	case a.BitDepth <= 8:
		return "pcm_s8"
	case a.BitDepth == 16 || a.BitDepth == 24 || a.BitDepth == 32 || a.BitDepth == 64:
		return fmt.Sprintf("pcm_s%dle", a.BitDepth)
	default:
		log.Warn("unsupported bit depth, falling back to pcm_s16le",
			slog.Int("bit_depth", a.BitDepth))
		return "pcm_s16le"
	}
}
