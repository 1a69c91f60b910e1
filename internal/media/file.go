package media

import (
	"fmt"
	"log/slog"

	"github.com/levelwise/levelwise/internal/ffmpeg"
	"github.com/levelwise/levelwise/internal/loudness"
)

// File is a probed media file with its streams bucketed by kind.
type File struct {
	Input    string
	Output   string
	Duration float64 // container duration in seconds, 0 unknown

	Audio    []*AudioStream
	Video    []Stream
	Subtitle []Stream
}

// NewFile buckets the probed streams of input. Audio streams pick up their
// probed sample rate, bit depth and duration for measurement and encoding.
func NewFile(log *slog.Logger, input, output string, probe *ffmpeg.ProbeResult, mode loudness.Mode) (*File, error) {
	f := &File{
		Input:  input,
		Output: output,
	}

	for _, ps := range probe.Streams {
		s := Stream{
			Kind:  KindFromCodecType(ps.CodecType),
			Index: ps.Index,
			Path:  input,
		}
		switch s.Kind {
		case KindAudio:
			f.Audio = append(f.Audio, NewAudioStream(
				log, s,
				ps.SampleRateHz(),
				ps.BitDepth(),
				probe.DurationSeconds(ps),
				mode,
			))
		case KindVideo:
			f.Video = append(f.Video, s)
		case KindSubtitle:
			f.Subtitle = append(f.Subtitle, s)
		}
	}

	if len(f.Audio) == 0 {
		return nil, fmt.Errorf("%s: no audio streams to normalise", input)
	}

	if len(probe.Streams) > 0 {
		f.Duration = probe.DurationSeconds(probe.Streams[0])
	}

	return f, nil
}
