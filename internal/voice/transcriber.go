// Package voice turns recorded caller audio into text for the dialog engine.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// DefaultLanguage is the recognition language when none is configured.
const DefaultLanguage = "en-IN"

// ErrNoSpeech is returned when the recording produced no transcript.
var ErrNoSpeech = errors.New("voice: no speech recognised")

// Transcriber converts a WAV recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// GoogleTranscriber uses Google Cloud Speech-to-Text synchronous recognition.
type GoogleTranscriber struct {
	client   recognizer
	language string
	logger   *logging.Logger
}

// NewGoogleTranscriber dials the speech API. An empty credentialsFile falls back to
// application default credentials.
func NewGoogleTranscriber(ctx context.Context, credentialsFile, language string, logger *logging.Logger) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("voice: speech client: %w", err)
	}
	return newGoogleTranscriber(client, language, logger), nil
}

func newGoogleTranscriber(client recognizer, language string, logger *logging.Logger) *GoogleTranscriber {
	if language == "" {
		language = DefaultLanguage
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GoogleTranscriber{client: client, language: language, logger: logger}
}

// Transcribe sends the recording and joins the top alternative of every result.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) > MaxAudioBytes {
		return "", fmt.Errorf("%w: recording larger than %d bytes", ErrUnsupportedAudio, MaxAudioBytes)
	}
	format, err := ParseWAV(wav)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(format.SampleRate),
			AudioChannelCount: int32(format.Channels),
			LanguageCode:      g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return "", fmt.Errorf("voice: recognize: %w", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoSpeech
	}
	transcript := strings.Join(parts, " ")
	g.logger.Debug("audio transcribed", "bytes", len(wav), "sample_rate", format.SampleRate, "chars", len(transcript))
	return transcript, nil
}

// Close releases the underlying client.
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}
