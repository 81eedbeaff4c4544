package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/intake"
)

// systemPrompt constrains the model to the JSON contract the parser expects.
const systemPrompt = `You are an expert business process automation consultant with deep expertise in:
- Business process analysis and optimization
- Digital transformation strategies
- ROI calculation and financial modeling
- Risk assessment and mitigation
- Implementation roadmap planning
- Technology selection and integration

Your task is to analyze the provided business information and generate a comprehensive automation assessment.

Provide your analysis in the following JSON format:
{
    "maturity_score": <integer 0-100>,
    "automation_potential": <integer 0-100>,
    "roi_projection": <float representing percentage>,
    "strengths": [<list of current strengths>],
    "weaknesses": [<list of current weaknesses>],
    "recommendations": [<list of specific recommendations>],
    "automation_opportunities": [<list of automation opportunities>],
    "process_scores": {<process name>: <integer 0-100>},
    "timeline_estimate": "<string like '6-12 months'>",
    "cost_analysis": {
        "estimated_investment": <float>,
        "annual_savings": <float>,
        "payback_period_months": <integer>
    }
}

Be specific, actionable, and data-driven in your recommendations.`

// RemoteStrategy sends submissions to an OpenAI-style chat-completions endpoint
// and parses the JSON-shaped response into a RawAnalysis. Every request carries
// a bounded timeout; the caller (Engine) treats any error (transport, timeout,
// or unparseable output) as a signal to fall back.
type RemoteStrategy struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewRemoteStrategy creates a remote strategy from analysis configuration.
func NewRemoteStrategy(cfg *config.AnalysisConfig) *RemoteStrategy {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteStrategy{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// chat-completions wire types
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Analyze submits the prompt and parses the model's reply. Any failure is
// returned as an error for the engine to absorb; no partial results escape.
func (s *RemoteStrategy) Analyze(ctx context.Context, sub intake.Submission) (RawAnalysis, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(sub)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return RawAnalysis{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return RawAnalysis{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return RawAnalysis{}, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	// Cap the response read; a well-formed completion is far below this.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RawAnalysis{}, fmt.Errorf("read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return RawAnalysis{}, fmt.Errorf("model returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return RawAnalysis{}, fmt.Errorf("decode model response: %w", err)
	}
	if chat.Error != nil {
		return RawAnalysis{}, fmt.Errorf("model error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return RawAnalysis{}, fmt.Errorf("model returned no choices")
	}

	return ParseModelOutput(chat.Choices[0].Message.Content)
}

// buildUserPrompt serializes the submission fields into the analysis prompt.
func buildUserPrompt(sub intake.Submission) string {
	var b strings.Builder
	b.WriteString("Please analyze the following business for automation opportunities:\n\n")
	b.WriteString("**Company Information:**\n")
	fmt.Fprintf(&b, "- Company: %s\n", sub.CompanyName)
	fmt.Fprintf(&b, "- Industry: %s\n", sub.Industry)
	fmt.Fprintf(&b, "- Size: %s\n\n", sub.CompanySize)
	b.WriteString("**Current State:**\n")
	fmt.Fprintf(&b, "- Current Processes: %s\n", strings.Join(sub.CurrentProcesses, ", "))
	fmt.Fprintf(&b, "- Pain Points: %s\n\n", strings.Join(sub.PainPoints, ", "))
	b.WriteString("**Goals and Requirements:**\n")
	fmt.Fprintf(&b, "- Automation Goals: %s\n", strings.Join(sub.AutomationGoals, ", "))
	fmt.Fprintf(&b, "- Budget Range: %s\n", sub.BudgetRange)
	fmt.Fprintf(&b, "- Timeline: %s\n\n", sub.Timeline)
	b.WriteString("Based on this information, provide a comprehensive automation assessment following the specified JSON format.\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
