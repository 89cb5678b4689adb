package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/ratelimit"

	"github.com/yuanying/epub2audiobook/internal/pcm"
)

// HTTPAdapter talks to a neural TTS model exposed over HTTP: the concrete
// default implementation of Adapter for this pipeline, alongside
// FakeAdapter's test double. It retries transient failures via
// go-retryablehttp and self-throttles via a token-bucket limiter so a burst
// of workers never exceeds the model's request quota.
type HTTPAdapter struct {
	client   *retryablehttp.Client
	limiter  ratelimit.Limiter
	endpoint string
	apiKey   string
}

// NewHTTPAdapter builds an unshared adapter instance. The scheduler's
// factory calls this once per chapter task; the returned value must not be
// reused across chapters concurrently.
func NewHTTPAdapter(cfg Config) *HTTPAdapter {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}

	return &HTTPAdapter{
		client:   client,
		limiter:  ratelimit.New(rps),
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
	}
}

type voicesResponse struct {
	Voices []struct {
		ID         string `json:"id"`
		Language   string `json:"language"`
		SampleRate int    `json:"sampleRate"`
		Channels   int    `json:"channels"`
		Format     string `json:"format"`
	} `json:"voices"`
}

func (a *HTTPAdapter) Voices(ctx context.Context) ([]Voice, error) {
	a.limiter.Take()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"/voices", nil)
	if err != nil {
		return nil, NewSynthesisFailed("building voices request", err)
	}
	a.setAuth(req.Request)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, NewSynthesisFailed("voices request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewSynthesisFailed(fmt.Sprintf("voices request returned %d", resp.StatusCode), nil)
	}

	var parsed voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, NewSynthesisFailed("decoding voices response", err)
	}

	voices := make([]Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		sample := pcm.Float32
		if v.Format == "int16" {
			sample = pcm.Int16
		}
		voices = append(voices, Voice{
			ID:       v.ID,
			Language: v.Language,
			Format: pcm.Format{
				SampleRate:  v.SampleRate,
				Channels:    v.Channels,
				Sample:      sample,
				Interleaved: true,
			},
		})
	}
	return voices, nil
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
}

// Synthesize posts text to the model endpoint and decodes the returned raw
// PCM payload. A 413 (payload/context overflow) response is mapped to
// ErrTokenLimitExceeded so the scheduler's bisection fallback engages.
func (a *HTTPAdapter) Synthesize(ctx context.Context, text, voice, language string) ([]pcm.Buffer, error) {
	a.limiter.Take()

	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice, Language: language})
	if err != nil {
		return nil, NewSynthesisFailed("encoding synthesis request", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, NewSynthesisFailed("building synthesis request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.setAuth(req.Request)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, NewSynthesisFailed("synthesis request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, ErrTokenLimitExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewSynthesisFailed(fmt.Sprintf("synthesis request returned %d", resp.StatusCode), nil)
	}

	sampleRate, err := parseIntHeader(resp.Header, "X-Sample-Rate")
	if err != nil {
		return nil, NewSynthesisFailed("missing X-Sample-Rate header", err)
	}
	channels, err := parseIntHeader(resp.Header, "X-Channels")
	if err != nil {
		return nil, NewSynthesisFailed("missing X-Channels header", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewSynthesisFailed("reading synthesis payload", err)
	}

	samples := bytesToFloat32(raw)
	format := pcm.Format{SampleRate: sampleRate, Channels: channels, Sample: pcm.Float32, Interleaved: true}
	frames := 0
	if channels > 0 {
		frames = len(samples) / channels
	}

	return []pcm.Buffer{pcm.NewFloat32(frames, format, samples)}, nil
}

func (a *HTTPAdapter) setAuth(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

func parseIntHeader(h http.Header, key string) (int, error) {
	v := h.Get(key)
	if v == "" {
		return 0, fmt.Errorf("header %s not present", key)
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, err
	}
	return n, nil
}

func bytesToFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
