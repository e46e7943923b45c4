package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kaiub/surplus-backend/pkg/config"
	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/logger"
)

// Scorer produces an overall match score in [0, 1] for a pair. Implementations
// must always return a usable score and never an error.
type Scorer interface {
	Score(ctx context.Context, listing models.SurplusListing, kitchen models.Profile) float64
}

// HeuristicScorer applies BasicMatchScore. It is both the default scorer and
// the fallback behind RemoteScorer.
type HeuristicScorer struct {
	now func() time.Time
}

// NewHeuristicScorer builds the deterministic scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{now: time.Now}
}

func (h *HeuristicScorer) Score(_ context.Context, listing models.SurplusListing, kitchen models.Profile) float64 {
	return BasicMatchScore(listing, kitchen, h.now())
}

const systemPrompt = `You are an AI that matches surplus food with community kitchens.
Rate the match on a scale of 0.0 to 1.0 based on:
- Nutritional value for community needs
- Quantity vs kitchen capacity
- Location proximity
- Expiry date urgency
- Kitchen storage capabilities

Respond with just a decimal number between 0.0 and 1.0.`

// RemoteScorer asks a chat-completions endpoint for a holistic score. Without
// a configured credential it delegates straight to the fallback with no
// network call, and every failure class (transport, status, parse, NaN) also
// falls back. A single attempt, no retries.
type RemoteScorer struct {
	cfg      config.ScoringConfig
	client   *http.Client
	fallback Scorer
	logg     *logger.Logger
}

// NewRemoteScorer wires the remote scorer around its fallback.
func NewRemoteScorer(cfg config.ScoringConfig, fallback Scorer, logg *logger.Logger) (*RemoteScorer, error) {
	if fallback == nil {
		return nil, errors.New("fallback scorer required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &RemoteScorer{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
		logg:     logg,
	}, nil
}

func (r *RemoteScorer) Score(ctx context.Context, listing models.SurplusListing, kitchen models.Profile) float64 {
	if !r.cfg.Enabled() {
		return r.fallback.Score(ctx, listing, kitchen)
	}

	score, err := r.remoteScore(ctx, listing, kitchen)
	if err != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"listing_id": listing.ID.String(),
			"kitchen_id": kitchen.ID.String(),
		})
		r.logg.Warn(logCtx, fmt.Sprintf("remote scoring failed, using heuristic: %v", err))
		return r.fallback.Score(ctx, listing, kitchen)
	}
	return clamp01(score)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r *RemoteScorer) remoteScore(ctx context.Context, listing models.SurplusListing, kitchen models.Profile) (float64, error) {
	payload := chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPairPrompt(listing, kitchen)},
		},
		MaxCompletionTokens: 10,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimSuffix(r.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call scoring endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("scoring endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return 0, errors.New("response contained no choices")
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	score, err := strconv.ParseFloat(content, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", content, err)
	}
	if math.IsNaN(score) {
		return 0, errors.New("score is NaN")
	}
	return score, nil
}

func buildPairPrompt(listing models.SurplusListing, kitchen models.Profile) string {
	kitchenName := "Community Kitchen"
	capacity := defaultKitchenCapacity
	storage := "basic"
	if kitchen.KitchenDetail != nil {
		if kitchen.KitchenDetail.KitchenName != "" {
			kitchenName = kitchen.KitchenDetail.KitchenName
		}
		if kitchen.KitchenDetail.CapacityPeople > 0 {
			capacity = kitchen.KitchenDetail.CapacityPeople
		}
		if kitchen.KitchenDetail.StorageCapacity != nil && *kitchen.KitchenDetail.StorageCapacity != "" {
			storage = *kitchen.KitchenDetail.StorageCapacity
		}
	}

	return fmt.Sprintf(
		"SURPLUS: %s, %s%s, expires %s, location: %s\nKITCHEN: %s, serves %d people, location: %s, storage: %s",
		listing.ProductName,
		listing.Quantity.String(),
		listing.Unit,
		listing.ExpiryDate.Format("2006-01-02"),
		listing.Location,
		kitchenName,
		capacity,
		kitchen.Location,
		storage,
	)
}
