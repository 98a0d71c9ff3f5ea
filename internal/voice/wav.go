package voice

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxAudioBytes caps uploaded recordings (about a minute of 16 kHz mono PCM).
const MaxAudioBytes = 5 * 1024 * 1024

const wavHeaderSize = 44

// ErrUnsupportedAudio is returned for anything but 16-bit PCM WAV.
var ErrUnsupportedAudio = errors.New("voice: audio must be 16-bit PCM WAV")

// WAVFormat is what the recognizer needs to know about a recording.
type WAVFormat struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

type wavHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ParseWAV reads the canonical RIFF header and rejects anything the recognizer
// cannot take as LINEAR16.
func ParseWAV(data []byte) (WAVFormat, error) {
	if len(data) < wavHeaderSize {
		return WAVFormat{}, fmt.Errorf("%w: header too short", ErrUnsupportedAudio)
	}
	var h wavHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return WAVFormat{}, fmt.Errorf("voice: read wav header: %w", err)
	}
	if string(h.RiffTag[:]) != "RIFF" || string(h.WaveTag[:]) != "WAVE" || string(h.FmtTag[:]) != "fmt " {
		return WAVFormat{}, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnsupportedAudio)
	}
	if h.AudioFormat != 1 || h.BitsPerSample != 16 {
		return WAVFormat{}, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedAudio, h.AudioFormat, h.BitsPerSample)
	}
	if h.NumChannels == 0 || h.SampleRate == 0 {
		return WAVFormat{}, fmt.Errorf("%w: empty channel or rate", ErrUnsupportedAudio)
	}
	return WAVFormat{
		Channels:      int(h.NumChannels),
		SampleRate:    int(h.SampleRate),
		BitsPerSample: int(h.BitsPerSample),
	}, nil
}
