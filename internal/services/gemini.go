package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Canned replies. The store only ever sees a string to display.
const (
	FallbackReply    = "The neural link is temporarily unstable. Please reconnect shortly."
	PlaceholderReply = "I'm processing the architectural implications of your request. One moment."
)

// Decoding configuration. Fixed for the process, not exposed to visitors.
const (
	temperature = 0.75
	topP        = 0.95
	topK        = 64
)

// contentGenerator is the part of *genai.GenerativeModel the service uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type GeminiService struct {
	client   *genai.Client
	model    contentGenerator
	timeout  time.Duration
	log      *slog.Logger
	rateChan chan struct{} // Token bucket; nil means unlimited
}

// NewGeminiService builds the client and configures the model once: decoding
// parameters and the system instruction. If the client cannot be created (for
// example, no API key) every call resolves to FallbackReply instead of failing
// startup.
func NewGeminiService(apiKey, modelName, systemInstruction string, concurrentReqs int, timeout time.Duration, log *slog.Logger) *GeminiService {
	s := &GeminiService{timeout: timeout, log: log, rateChan: newRateChan(concurrentReqs)}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		log.Warn("gemini client unavailable; replies will use the fallback", "err", err)
		s.model = unavailableModel{err: fmt.Errorf("failed to create Gemini client: %w", err)}
		return s
	}

	model := client.GenerativeModel(modelName)
	configureModel(model, systemInstruction)

	s.client = client
	s.model = model
	return s
}

func newGeminiServiceWithModel(model contentGenerator, timeout time.Duration, log *slog.Logger) *GeminiService {
	return &GeminiService{model: model, timeout: timeout, log: log}
}

func newRateChan(concurrentReqs int) chan struct{} {
	if concurrentReqs <= 0 {
		return nil
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}
	return rateChan
}

// acquireRate waits for a free request slot.
func (s *GeminiService) acquireRate(ctx context.Context) error {
	if s.rateChan == nil {
		return nil
	}
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for Gemini rate slot: %w", ctx.Err())
	}
}

func (s *GeminiService) releaseRate() {
	if s.rateChan != nil {
		s.rateChan <- struct{}{}
	}
}

func configureModel(model *genai.GenerativeModel, systemInstruction string) {
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetTopK(topK)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Generate sends text as a single user turn and returns the reply. It never
// returns an error: failures are logged and replaced by FallbackReply, an empty
// or blocked result by PlaceholderReply.
func (s *GeminiService) Generate(ctx context.Context, text string) string {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// The timeout covers the wait for a slot as well as the call.
	if err := s.acquireRate(ctx); err != nil {
		s.log.Error("gemini transmission error", "err", err)
		return FallbackReply
	}
	defer s.releaseRate()

	start := time.Now()
	resp, err := s.model.GenerateContent(ctx, genai.Text(text))
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		// A blocked reply is a completed call with no text.
		s.log.Warn("gemini reply blocked; using placeholder", "err", blocked, "duration_ms", time.Since(start).Milliseconds())
		return PlaceholderReply
	}
	if err != nil {
		s.log.Error("gemini transmission error", "err", err, "duration_ms", time.Since(start).Milliseconds())
		return FallbackReply
	}
	if resp == nil {
		resp = &genai.GenerateContentResponse{}
	}

	for i, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			s.log.Warn("gemini candidate stopped early", "candidate", i, "finish_reason", cand.FinishReason.String())
		}
	}

	reply := extractText(resp)
	if reply == "" {
		s.log.Warn("gemini returned empty text; using placeholder")
		return PlaceholderReply
	}

	s.log.Debug("gemini reply", "chars", len(reply), "duration_ms", time.Since(start).Milliseconds())
	return reply
}

// extractText returns the text of the first candidate, as the SDK's
// response text does.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}

type unavailableModel struct {
	err error
}

func (m unavailableModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return nil, m.err
}
