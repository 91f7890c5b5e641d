// internal/workers/generation/generate-room-design/orchestrator_test.go
package generateroomdesign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"room-redesign-workers/internal/common/analytics"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/common/observability"
	"room-redesign-workers/internal/models"
	enhanceprompt "room-redesign-workers/internal/workers/generation/enhance-prompt"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEnhancer struct {
	mu       sync.Mutex
	delay    time.Duration
	fallback bool
	calls    int
	order    *[]string
}

func (f *fakeEnhancer) Execute(_ context.Context, req *models.GenerationRequest) *models.EnhancedPromptResult {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls++
	if f.order != nil {
		*f.order = append(*f.order, "enhancement")
	}
	f.mu.Unlock()

	return &models.EnhancedPromptResult{
		EnhancedPrompt:   "Enhanced: " + req.UserPrompt,
		OriginalData:     req,
		ProcessingTimeMs: 42,
		FallbackUsed:     f.fallback,
		Metadata: models.EnhancementMetadata{
			Stage:              models.EnhancementStageNumber,
			ModelName:          "gemini-2.5-flash",
			EnhancementApplied: !f.fallback,
		},
	}
}

type fakeSynthesizer struct {
	mu     sync.Mutex
	err    error
	calls  int
	inputs []generatedesign.Input
	order  *[]string
}

func (f *fakeSynthesizer) Execute(_ context.Context, input *generatedesign.Input) (*models.GeneratedDesign, error) {
	f.mu.Lock()
	f.calls++
	f.inputs = append(f.inputs, *input)
	if f.order != nil {
		*f.order = append(*f.order, "synthesis")
	}
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &models.GeneratedDesign{
		Image: models.DesignImage{
			URL: "https://cdn/" + input.SessionID + ".png",
			Metadata: models.ImageMetadata{
				ModelName:           "gemini-2.5-flash-image",
				ProcessingTimeMs:    900,
				PromptUsed:          input.EnhancedPrompt,
				ReferenceImagesUsed: len(input.ReferenceImages),
			},
		},
		SessionID:       input.SessionID,
		EnhancedPrompt:  input.EnhancedPrompt,
		AppliedPrompt:   input.EnhancedPrompt,
		ReferenceImages: input.ReferenceImages,
	}, nil
}

func createTestRequest() *models.GenerationRequest {
	return &models.GenerationRequest{
		UserPrompt:    "make it modern",
		OriginalImage: "img://a",
		LocationClicks: []models.LocationClick{
			{X: 10.0, Y: 20.0, Description: "the sofa"},
		},
		ReferenceImages: []models.ReferenceImage{
			{URL: "https://img/1", Description: "like this", Type: models.ReferenceStyle},
		},
		SelectedFeatures: models.SelectedFeatures{
			Style:    []string{"scandinavian"},
			Lighting: "natural",
		},
		SessionID: "s1",
		UserID:    "u1",
	}
}

func newTestOrchestrator(t *testing.T, enhancer Enhancer, synthesizer Synthesizer, collector analytics.Collector) *Orchestrator {
	return NewOrchestrator(enhancer, synthesizer, collector, nil, logger.NewTestLogger(t))
}

// withoutTiming zeroes the measured durations so two runs can be compared.
func withoutTiming(result *models.CompleteGenerationResult) *models.CompleteGenerationResult {
	clone := *result
	if clone.Payload != nil {
		payload := *clone.Payload
		payload.TotalProcessingTimeMs = 0
		payload.StageDurations = models.StageDurations{}
		clone.Payload = &payload
	}
	return &clone
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRun_Success(t *testing.T) {
	enhancer := &fakeEnhancer{}
	synthesizer := &fakeSynthesizer{}
	recorder := analytics.NewRecorder()

	result := newTestOrchestrator(t, enhancer, synthesizer, recorder).Run(context.Background(), createTestRequest())

	require.True(t, result.Success)
	assert.Empty(t, result.ErrorMessage)
	require.NotNil(t, result.Payload)
	assert.Equal(t, "https://cdn/s1.png", result.Payload.Design.Image.URL)
	assert.Equal(t, "Enhanced: make it modern", result.Payload.Enhancement.EnhancedPrompt)
	assert.False(t, result.Payload.Enhancement.FallbackUsed)
	assert.GreaterOrEqual(t, result.Payload.TotalProcessingTimeMs,
		result.Payload.StageDurations.Stage1Ms+result.Payload.StageDurations.Stage2Ms)

	assert.Equal(t, 1, enhancer.calls)
	assert.Equal(t, 1, synthesizer.calls)

	event, ok := recorder.Last(analytics.EventGenerationSuccess)
	require.True(t, ok)
	assert.Equal(t, "u1", event.StringProperty("userId"))
	assert.Equal(t, "s1", event.StringProperty("sessionId"))
	assert.Equal(t, true, event.Properties["hasLocationClicks"])
	assert.Equal(t, true, event.Properties["hasReferenceImages"])
	assert.Equal(t, []string{"lighting", "style"}, event.Properties["selectedFeatures"])
	assert.Equal(t, false, event.Properties["fallbackUsed"])
	assert.Equal(t, result.Payload.TotalProcessingTimeMs, event.Properties["totalProcessingTimeMs"])
	assert.Equal(t, result.Payload.StageDurations.Stage1Ms, event.Properties["stage1Ms"])
	assert.Equal(t, result.Payload.StageDurations.Stage2Ms, event.Properties["stage2Ms"])

	_, failed := recorder.Last(analytics.EventGenerationFailure)
	assert.False(t, failed)
}

func TestRun_SynthesisReceivesEnhancementOutput(t *testing.T) {
	synthesizer := &fakeSynthesizer{}
	req := createTestRequest()

	result := newTestOrchestrator(t, &fakeEnhancer{}, synthesizer, nil).Run(context.Background(), req)
	require.True(t, result.Success)

	require.Len(t, synthesizer.inputs, 1)
	input := synthesizer.inputs[0]
	assert.Equal(t, result.Payload.Enhancement.EnhancedPrompt, input.EnhancedPrompt)
	assert.Equal(t, req.OriginalImage, input.OriginalImage)
	assert.Equal(t, req.ReferenceImages, input.ReferenceImages)
	assert.Equal(t, req.SessionID, input.SessionID)
	assert.Equal(t, req.UserID, input.UserID)
}

func TestRun_StagesRunInOrder(t *testing.T) {
	var order []string
	enhancer := &fakeEnhancer{delay: 20 * time.Millisecond, order: &order}
	synthesizer := &fakeSynthesizer{order: &order}

	result := newTestOrchestrator(t, enhancer, synthesizer, nil).Run(context.Background(), createTestRequest())
	require.True(t, result.Success)

	assert.Equal(t, []string{"enhancement", "synthesis"}, order)
	assert.GreaterOrEqual(t, result.Payload.StageDurations.Stage1Ms, int64(20))
	assert.GreaterOrEqual(t, result.Payload.TotalProcessingTimeMs, int64(20))
}

func TestRun_FallbackFlagReachesEvent(t *testing.T) {
	recorder := analytics.NewRecorder()
	req := createTestRequest()
	req.LocationClicks = nil
	req.ReferenceImages = nil
	req.SelectedFeatures = models.SelectedFeatures{}

	result := newTestOrchestrator(t, &fakeEnhancer{fallback: true}, &fakeSynthesizer{}, recorder).
		Run(context.Background(), req)
	require.True(t, result.Success)
	assert.True(t, result.Payload.Enhancement.FallbackUsed)

	event, ok := recorder.Last(analytics.EventGenerationSuccess)
	require.True(t, ok)
	assert.Equal(t, true, event.Properties["fallbackUsed"])
	assert.Equal(t, false, event.Properties["hasLocationClicks"])
	assert.Equal(t, false, event.Properties["hasReferenceImages"])
	assert.Equal(t, []string{}, event.Properties["selectedFeatures"])
}

// ==========================
// Failure Tests
// ==========================

func TestRun_SynthesisFailurePropagates(t *testing.T) {
	synthErr := fmt.Errorf("%w: model overloaded", generatedesign.ErrSynthesisFailed)
	enhancer := &fakeEnhancer{}
	synthesizer := &fakeSynthesizer{err: synthErr}
	recorder := analytics.NewRecorder()

	result := newTestOrchestrator(t, enhancer, synthesizer, recorder).Run(context.Background(), createTestRequest())

	assert.False(t, result.Success)
	assert.Nil(t, result.Payload)
	assert.Equal(t, "SYNTHESIS_FAILED: model overloaded", result.ErrorMessage)
	assert.Equal(t, 1, synthesizer.calls)

	event, ok := recorder.Last(analytics.EventGenerationFailure)
	require.True(t, ok)
	assert.Equal(t, "u1", event.StringProperty("userId"))
	assert.Equal(t, "s1", event.StringProperty("sessionId"))
	assert.Equal(t, result.ErrorMessage, event.StringProperty("error"))
	assert.Contains(t, event.Properties, "processingTimeMs")

	_, succeeded := recorder.Last(analytics.EventGenerationSuccess)
	assert.False(t, succeeded)
	assert.Len(t, recorder.Events(), 1)
}

func TestRunWithCause_KeepsStageError(t *testing.T) {
	synthErr := fmt.Errorf("%w: %v", generatedesign.ErrSynthesisTimeout, context.DeadlineExceeded)
	orchestrator := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{err: synthErr}, nil)

	result, err := orchestrator.RunWithCause(context.Background(), createTestRequest())

	assert.False(t, result.Success)
	assert.ErrorIs(t, err, generatedesign.ErrSynthesisTimeout)
	assert.Equal(t, err.Error(), result.ErrorMessage)
}

func TestRunWithCause_SuccessHasNoError(t *testing.T) {
	result, err := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{}, nil).
		RunWithCause(context.Background(), createTestRequest())

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRun_EmptyErrorMessageIsReplaced(t *testing.T) {
	result := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{err: errors.New("")}, nil).
		Run(context.Background(), createTestRequest())

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestRun_NilRequest(t *testing.T) {
	enhancer := &fakeEnhancer{}
	result := newTestOrchestrator(t, enhancer, &fakeSynthesizer{}, nil).Run(context.Background(), nil)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
	assert.Equal(t, 0, enhancer.calls)
}

func TestRun_AnalyticsDoesNotChangeResult(t *testing.T) {
	recorded := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{}, analytics.NewRecorder()).
		Run(context.Background(), createTestRequest())
	silent := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{}, analytics.NopCollector{}).
		Run(context.Background(), createTestRequest())

	assert.Equal(t, withoutTiming(recorded), withoutTiming(silent))
}

// ==========================
// Idempotency & Concurrency Tests
// ==========================

func TestRun_IdenticalRequestsGiveIdenticalResults(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{}, nil)

	first := orchestrator.Run(context.Background(), createTestRequest())
	second := orchestrator.Run(context.Background(), createTestRequest())

	assert.Equal(t, withoutTiming(first), withoutTiming(second))
}

func TestRun_IdenticalFailuresGiveIdenticalResults(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{err: generatedesign.ErrSynthesisFailed}, nil)

	first := orchestrator.Run(context.Background(), createTestRequest())
	second := orchestrator.Run(context.Background(), createTestRequest())

	assert.Equal(t, first, second)
}

func TestRun_ConcurrentInvocationsAreIndependent(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &fakeEnhancer{}, &fakeSynthesizer{}, analytics.NewRecorder())

	const runs = 20
	results := make([]*models.CompleteGenerationResult, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := createTestRequest()
			req.SessionID = fmt.Sprintf("s%d", i)
			req.UserPrompt = fmt.Sprintf("prompt %d", i)
			results[i] = orchestrator.Run(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		require.True(t, result.Success)
		assert.Equal(t, fmt.Sprintf("s%d", i), result.Payload.Design.SessionID)
		assert.Equal(t, fmt.Sprintf("Enhanced: prompt %d", i), result.Payload.Design.EnhancedPrompt)
	}
}

func TestRun_WithObservability(t *testing.T) {
	obs := observability.New("room-redesign-workers-test", "", zaptest.NewLogger(t))
	defer obs.Shutdown()

	orchestrator := NewOrchestrator(&fakeEnhancer{}, &fakeSynthesizer{}, nil, obs, logger.NewTestLogger(t))

	assert.True(t, orchestrator.Run(context.Background(), createTestRequest()).Success)
	assert.False(t, NewOrchestrator(&fakeEnhancer{}, &fakeSynthesizer{err: generatedesign.ErrSynthesisFailed}, nil, obs, logger.NewTestLogger(t)).
		Run(context.Background(), createTestRequest()).Success)
}

// ==========================
// Stage Integration Tests
// ==========================

func TestRun_WithStageHandlers_EnhancementFallsBack(t *testing.T) {
	var synthesisPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case enhanceprompt.EndpointPath:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"error":"enhancement offline"}`))
		case generatedesign.EndpointPath:
			var body generatedesign.Input
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			synthesisPrompt = body.EnhancedPrompt
			_, _ = w.Write([]byte(`{"success":true,"data":{"generatedImage":{"url":"https://cdn/out.png","metadata":{"model":"gemini-2.5-flash-image","processingTime":700}},"sessionId":"s1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	enhanceConfig := enhanceprompt.LoadConfig()
	enhanceConfig.BaseURL = server.URL
	enhanceConfig.Timeout = 2 * time.Second
	synthesisConfig := generatedesign.LoadConfig()
	synthesisConfig.BaseURL = server.URL
	synthesisConfig.Timeout = 2 * time.Second

	log := logger.NewTestLogger(t)
	recorder := analytics.NewRecorder()
	orchestrator := NewOrchestrator(
		enhanceprompt.NewHandler(enhanceConfig, log),
		generatedesign.NewHandler(synthesisConfig, log),
		recorder, nil, log,
	)

	req := &models.GenerationRequest{
		UserPrompt:    "make it modern",
		OriginalImage: "img://a",
		SessionID:     "s1",
		UserID:        "u1",
	}
	result := orchestrator.Run(context.Background(), req)

	require.True(t, result.Success)
	enhanced := result.Payload.Enhancement.EnhancedPrompt
	assert.True(t, result.Payload.Enhancement.FallbackUsed)
	assert.True(t, strings.HasPrefix(enhanced, "Transform this interior space: make it modern."))
	assert.True(t, strings.HasSuffix(enhanced, "magazine-quality finishes."))
	assert.Equal(t, enhanced, synthesisPrompt)
	assert.Equal(t, "https://cdn/out.png", result.Payload.Design.Image.URL)

	event, ok := recorder.Last(analytics.EventGenerationSuccess)
	require.True(t, ok)
	assert.Equal(t, true, event.Properties["fallbackUsed"])
}

func TestRun_WithStageHandlers_SynthesisFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case enhanceprompt.EndpointPath:
			_, _ = w.Write([]byte(`{"success":true,"data":{"enhancedPrompt":"A modern living room","processingTime":300,"metadata":{"model":"gemini-2.5-flash"}}}`))
		default:
			_, _ = w.Write([]byte(`{"success":false,"error":"quota exceeded"}`))
		}
	}))
	defer server.Close()

	enhanceConfig := enhanceprompt.LoadConfig()
	enhanceConfig.BaseURL = server.URL
	synthesisConfig := generatedesign.LoadConfig()
	synthesisConfig.BaseURL = server.URL

	log := logger.NewTestLogger(t)
	recorder := analytics.NewRecorder()
	result := NewOrchestrator(
		enhanceprompt.NewHandler(enhanceConfig, log),
		generatedesign.NewHandler(synthesisConfig, log),
		recorder, nil, log,
	).Run(context.Background(), createTestRequest())

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "quota exceeded")

	event, ok := recorder.Last(analytics.EventGenerationFailure)
	require.True(t, ok)
	assert.Contains(t, event.StringProperty("error"), "quota exceeded")
}
