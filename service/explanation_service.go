package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"refi-agent/domain"
)

// ExplanationService turns a finished report into a short prose
// explanation. With OPENAI_API_KEY set it asks the chat API; without
// it, or on any API failure, it falls back to a deterministic summary
// built from the report's own numbers.
type ExplanationService struct {
	apiKey     string
	apiURL     string
	enabled    bool
	httpClient *http.Client
	logger     *zap.Logger
}

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

func NewExplanationService(logger *zap.Logger) *ExplanationService {
	apiKey := os.Getenv("OPENAI_API_KEY")

	return &ExplanationService{
		apiKey:  apiKey,
		apiURL:  "https://api.openai.com/v1/chat/completions",
		enabled: apiKey != "",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ExplainReport returns a short paragraph explaining what the tipping
// points mean for this scenario.
func (s *ExplanationService) ExplainReport(r domain.AnalysisReport) string {
	if !s.enabled {
		return s.fallbackExplanation(r)
	}

	points := r.TippingPoints
	saleLine := "never, down to the search floor"
	if points.SaleFound {
		saleLine = fmt.Sprintf("%.3f%%", points.SaleRatePct)
	}
	lifetimeLine := "never, down to the search floor"
	if points.LifetimeFound {
		lifetimeLine = fmt.Sprintf("%.3f%%", points.LifetimeRatePct)
	}

	prompt := fmt.Sprintf(`Explain this mortgage refinance break-even analysis to the homeowner.

SCENARIO:
- Original loan: $%.2f at %.3f%% for %d months, %d payments made
- Remaining principal: $%.2f
- Closing costs rolled into the refinance: $%.2f (%.1f%% of the balance)
- Refinanced principal: $%.2f on a new %d-month loan
- Planned sale: %s (%d months after the first payment)

BREAK-EVEN RATES FOUND:
- Refinance pays off before the sale at: %s
- Refinance pays off over the full lifetime at: %s

INSTRUCTIONS:
1. State plainly at what rate refinancing starts to make sense for each horizon.
2. Mention the role of the rolled-in closing costs.
3. Use only the numbers given above.

Write 3-4 sentences in plain language.`,
		r.Input.LoanAmount, r.Input.RatePct, r.Input.TermMonths, r.Input.PaymentsMade,
		r.RemainingPrincipal,
		r.ClosingCosts, r.Input.ClosingCostPct*100,
		r.RefinancedPrincipal, RefinanceTermMonths,
		r.SaleLabel, r.MonthsUntilSale,
		saleLine, lifetimeLine)

	explanation, err := s.callLLM(prompt)
	if err != nil {
		s.logger.Warn("explanation API failed, using fallback", zap.Error(err))
		return s.fallbackExplanation(r)
	}

	return explanation
}

func (s *ExplanationService) callLLM(prompt string) (string, error) {
	reqBody := ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []ChatMessage{
			{
				Role:    "system",
				Content: "You are a mortgage advisor who explains refinance timing for US fixed-rate loans. You explain break-even math in plain language, cite only the rates and dollar figures you are given, and never invent numbers. Keep the explanation to one short paragraph.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: 300,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (s *ExplanationService) fallbackExplanation(r domain.AnalysisReport) string {
	points := r.TippingPoints

	if !points.SaleFound && !points.LifetimeFound {
		return fmt.Sprintf("No refinance rate above the %.2f%% search floor beats keeping the current %.3f%% loan, either through the planned %s sale or over the full term. With $%.2f of closing costs rolled in, the refinanced balance is too large for a rate drop alone to pay off.",
			SearchFloorPct, r.Input.RatePct, r.SaleLabel, r.ClosingCosts)
	}

	var b strings.Builder
	if points.SaleFound {
		b.WriteString(fmt.Sprintf("Refinancing starts to pay off before the planned %s sale once rates reach %.3f%%, a drop of %.3f points from the current %.3f%%. ",
			r.SaleLabel, points.SaleRatePct, r.Input.RatePct-points.SaleRatePct, r.Input.RatePct))
	} else {
		b.WriteString(fmt.Sprintf("No rate above the %.2f%% search floor pays off before the planned %s sale. ",
			SearchFloorPct, r.SaleLabel))
	}

	if points.LifetimeFound {
		b.WriteString(fmt.Sprintf("Held to maturity, any rate at or below %.3f%% beats the original loan's remaining payments. ",
			points.LifetimeRatePct))
	} else {
		b.WriteString(fmt.Sprintf("Held to maturity, no rate above the %.2f%% floor beats the original loan's remaining payments. ",
			SearchFloorPct))
	}

	b.WriteString(fmt.Sprintf("Both figures assume %.1f%% closing costs ($%.2f) rolled into a new %d-month loan.",
		r.Input.ClosingCostPct*100, r.ClosingCosts, RefinanceTermMonths))

	return b.String()
}
