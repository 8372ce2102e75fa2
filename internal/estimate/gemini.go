package estimate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/fieldsnap/fieldsnap/internal/field"
)

const systemPrompt = `You identify fillable form fields on a scanned or digital form page.
Return ONLY a JSON object of the shape:
{"fields":[{"label":string,"fieldType":string,"coordinates":{"left":number,"top":number,"width":number,"height":number},...}]}

fieldType is one of: text, textarea, checkbox, radio, date, signature, initials,
circle_choice, table, linkedDate, linkedText.
All coordinates are percentages (0-100) of page width/height, origin top-left.
Table fields carry "tableConfig" with columnHeaders, dataRows and coordinates.
linkedDate fields carry "dateSegments" (part: day/month/year/year2, each with coordinates).
linkedText fields carry "segments" (each with coordinates).
circle_choice fields carry "options" (label + coordinates each).
Optionally set "groupLabel" to the section heading a field belongs under.
Any text outside the JSON object is an error.`

// maxAttempts bounds retries against transient model failures.
const maxAttempts = 3

// GeminiEstimator implements Estimator over the Gemini API.
type GeminiEstimator struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// NewGeminiEstimator creates a Gemini-backed estimator. timeout bounds
// each model call; zero means no explicit bound beyond the caller's
// context.
func NewGeminiEstimator(apiKey, model string, timeout time.Duration) *GeminiEstimator {
	return &GeminiEstimator{
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		timeout: timeout,
	}
}

// EstimateFields sends the rendered page to the model and parses its
// structured response. The model call is the one operation with
// unbounded external latency, so the configured timeout wraps it here
// rather than being threaded through the rest of the pipeline.
func (e *GeminiEstimator) EstimateFields(ctx context.Context, img PageImage, pageNum int) ([]field.Field, error) {
	if e.apiKey == "" {
		return nil, errors.New("gemini: API key is empty")
	}
	if len(img.Data) == 0 {
		return nil, errors.New("gemini: empty page image")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	parts := []genai.Part{
		genai.Text("Extract every fillable field from this form page. JSON only."),
		&genai.Blob{MIMEType: mime, Data: img.Data},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return nil, errors.New("gemini: empty response")
		}
		fields, err := ParseFields([]byte(txt), pageNum)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return fields, nil
	}
	return nil, fmt.Errorf("gemini: generation failed after %d attempts: %w", maxAttempts, lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

func ptrFloat32(f float32) *float32 { return &f }
