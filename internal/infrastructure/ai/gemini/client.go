// Package gemini provides the Google Gemini integration behind the
// vision service port: ingredient recognition from a still frame and
// recipe suggestion from a pantry snapshot, both as schema-constrained
// JSON calls.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
	"github.com/spicesync/spicesync/internal/infrastructure/config"
	"github.com/spicesync/spicesync/internal/infrastructure/monitoring"
	"github.com/spicesync/spicesync/internal/ports/outbound"
)

const scanInstruction = "Identify all food ingredients in this image. " +
	"For each, specify name, category (produce, dairy, meat, pantry, spice, or other), " +
	"freshness level, and estimated quantity. Return as a JSON array."

// Client implements outbound.VisionService against the Gemini API.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	limiter     *rate.Limiter
	validate    *validator.Validate
	logger      *zap.Logger
	metrics     *monitoring.Metrics
	imageURL    recipe.ImageURLFunc
}

// NewClient creates a Gemini client from configuration. Calls are
// bounded by the configured timeout and rate-limited client side.
func NewClient(cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) *Client {
	perMinute := cfg.AI.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Client{
		apiKey:      cfg.AI.GeminiKey,
		baseURL:     strings.TrimSuffix(cfg.AI.BaseURL, "/"),
		model:       cfg.AI.GeminiModel,
		maxTokens:   cfg.AI.MaxTokens,
		temperature: cfg.AI.Temperature,
		client: &http.Client{
			Timeout: cfg.AI.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(perMinute)/60, 1),
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
		imageURL: recipe.PlaceholderImageURL,
	}
}

// SetImageURLFunc replaces the deterministic title-to-image mapping.
func (c *Client) SetImageURLFunc(fn recipe.ImageURLFunc) {
	if fn != nil {
		c.imageURL = fn
	}
}

// Gemini generateContent request/response structures
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
	Temperature      float64        `json:"temperature,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Wire shapes for the schema-constrained responses
type scannedIngredient struct {
	Name      string `json:"name" validate:"required"`
	Category  string `json:"category" validate:"required"`
	Freshness string `json:"freshness" validate:"required"`
	Quantity  string `json:"quantity" validate:"required"`
}

type suggestedIngredient struct {
	Name        string `json:"name" validate:"required"`
	Amount      string `json:"amount"`
	Substituted bool   `json:"substituted"`
}

type suggestedNutrition struct {
	Calories float64 `json:"calories"`
	Protein  string  `json:"protein"`
	Carbs    string  `json:"carbs"`
	Fats     string  `json:"fats"`
}

type suggestedRecipe struct {
	Title        string                `json:"title" validate:"required"`
	Description  string                `json:"description" validate:"required"`
	CookingTime  float64               `json:"cookingTime" validate:"required,gt=0"`
	Difficulty   string                `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Ingredients  []suggestedIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []string              `json:"instructions" validate:"required,min=1,dive,required"`
	Nutrition    *suggestedNutrition   `json:"nutrition"`
	DietaryTags  []string              `json:"dietaryTags"`
	MatchScore   float64               `json:"matchScore"`
}

var ingredientSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"name":      map[string]any{"type": "STRING"},
			"category":  map[string]any{"type": "STRING"},
			"freshness": map[string]any{"type": "STRING"},
			"quantity":  map[string]any{"type": "STRING"},
		},
		"required": []string{"name", "category", "freshness", "quantity"},
	},
}

var recipeSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"title":       map[string]any{"type": "STRING"},
			"description": map[string]any{"type": "STRING"},
			"cookingTime": map[string]any{"type": "NUMBER"},
			"difficulty":  map[string]any{"type": "STRING"},
			"ingredients": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"name":        map[string]any{"type": "STRING"},
						"amount":      map[string]any{"type": "STRING"},
						"substituted": map[string]any{"type": "BOOLEAN"},
					},
				},
			},
			"instructions": map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
			"nutrition": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"calories": map[string]any{"type": "NUMBER"},
					"protein":  map[string]any{"type": "STRING"},
					"carbs":    map[string]any{"type": "STRING"},
					"fats":     map[string]any{"type": "STRING"},
				},
			},
			"dietaryTags": map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
			"matchScore": map[string]any{"type": "NUMBER"},
		},
		"required": []string{"title", "description", "cookingTime", "difficulty", "ingredients", "instructions", "nutrition"},
	},
}

// RecognizeIngredients sends a still frame for ingredient recognition.
// A response that fails validation is discarded wholesale: the result
// is an empty slice and a logged diagnostic, never partial data.
func (c *Client) RecognizeIngredients(ctx context.Context, frame outbound.Frame) ([]pantry.Ingredient, error) {
	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: frame.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(frame.Data),
				}},
				{Text: scanInstruction},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   ingredientSchema,
			Temperature:      c.temperature,
			MaxOutputTokens:  c.maxTokens,
		},
	}

	start := time.Now()
	text, err := c.generateContent(ctx, req)
	if err != nil {
		c.metrics.ObserveAICall("recognize_ingredients", "error", time.Since(start))
		c.logger.Error("Ingredient recognition call failed", zap.Error(err))
		return nil, err
	}

	var raw []scannedIngredient
	if err := c.parseArray(text, &raw); err != nil {
		c.metrics.ObserveAICall("recognize_ingredients", "malformed", time.Since(start))
		c.logger.Warn("Discarding malformed recognition response", zap.Error(err))
		return []pantry.Ingredient{}, nil
	}

	items := make([]pantry.Ingredient, 0, len(raw))
	for _, entry := range raw {
		if err := c.validate.Struct(entry); err != nil {
			c.metrics.ObserveAICall("recognize_ingredients", "malformed", time.Since(start))
			c.logger.Warn("Discarding recognition response with invalid entry",
				zap.String("name", entry.Name),
				zap.Error(err),
			)
			return []pantry.Ingredient{}, nil
		}

		category, err := pantry.ParseCategory(entry.Category)
		if err != nil {
			c.metrics.ObserveAICall("recognize_ingredients", "malformed", time.Since(start))
			c.logger.Warn("Discarding recognition response with unknown category",
				zap.String("category", entry.Category),
			)
			return []pantry.Ingredient{}, nil
		}

		item, err := pantry.NewIngredient(entry.Name, entry.Quantity, category, pantry.ParseFreshness(entry.Freshness))
		if err != nil {
			c.metrics.ObserveAICall("recognize_ingredients", "malformed", time.Since(start))
			c.logger.Warn("Discarding recognition response", zap.Error(err))
			return []pantry.Ingredient{}, nil
		}
		items = append(items, item)
	}

	c.metrics.ObserveAICall("recognize_ingredients", "ok", time.Since(start))
	c.logger.Info("Recognized ingredients", zap.Int("count", len(items)))
	return items, nil
}

// SuggestRecipes requests recipe suggestions for the given pantry
// snapshot. Unlike recognition, a malformed response is a rejected
// operation: the caller decides what to fall back to.
func (c *Client) SuggestRecipes(ctx context.Context, ingredients []pantry.Ingredient, preferences []string) ([]recipe.Suggestion, error) {
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = ing.Name
	}

	prompt := fmt.Sprintf("Based on these ingredients: %s. ", strings.Join(names, ", "))
	if len(preferences) > 0 {
		prompt += fmt.Sprintf("Consider these preferences: %s. ", strings.Join(preferences, ", "))
	}
	prompt += "Suggest 3 diverse recipes. For each, provide: title, description, " +
		"cookingTime (min), difficulty (Easy, Medium, Hard), ingredients list with amounts, " +
		"step-by-step instructions, nutrition (calories, protein, carbs, fats), and dietary tags. " +
		"Return as a JSON array."

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   recipeSchema,
			Temperature:      c.temperature,
			MaxOutputTokens:  c.maxTokens,
		},
	}

	start := time.Now()
	text, err := c.generateContent(ctx, req)
	if err != nil {
		c.metrics.ObserveAICall("suggest_recipes", "error", time.Since(start))
		c.logger.Error("Recipe suggestion call failed", zap.Error(err))
		return nil, err
	}

	var raw []suggestedRecipe
	if err := c.parseArray(text, &raw); err != nil {
		c.metrics.ObserveAICall("suggest_recipes", "malformed", time.Since(start))
		c.logger.Error("Failed to parse suggestion response", zap.Error(err))
		return nil, fmt.Errorf("malformed suggestion response: %w", err)
	}

	suggestions := make([]recipe.Suggestion, 0, len(raw))
	for _, entry := range raw {
		if err := c.validate.Struct(entry); err != nil {
			c.metrics.ObserveAICall("suggest_recipes", "malformed", time.Since(start))
			c.logger.Error("Suggestion entry failed validation",
				zap.String("title", entry.Title),
				zap.Error(err),
			)
			return nil, fmt.Errorf("invalid suggestion entry: %w", err)
		}
		suggestions = append(suggestions, c.toSuggestion(entry))
	}

	c.metrics.ObserveAICall("suggest_recipes", "ok", time.Since(start))
	c.logger.Info("Generated recipe suggestions",
		zap.Int("count", len(suggestions)),
		zap.Strings("preferences", preferences),
	)
	return suggestions, nil
}

func (c *Client) toSuggestion(entry suggestedRecipe) recipe.Suggestion {
	ingredients := make([]recipe.Ingredient, len(entry.Ingredients))
	for i, ing := range entry.Ingredients {
		ingredients[i] = recipe.Ingredient{
			Name:        ing.Name,
			Amount:      ing.Amount,
			Substituted: ing.Substituted,
		}
	}

	var nutrition recipe.Nutrition
	if entry.Nutrition != nil {
		nutrition = recipe.Nutrition{
			Calories: int(math.Round(entry.Nutrition.Calories)),
			Protein:  entry.Nutrition.Protein,
			Carbs:    entry.Nutrition.Carbs,
			Fats:     entry.Nutrition.Fats,
		}
	}

	// Match score is advisory; clamp rather than reject.
	score := int(math.Round(entry.MatchScore))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return recipe.Suggestion{
		ID:           uuid.New(),
		Title:        entry.Title,
		Description:  entry.Description,
		Image:        c.imageURL(entry.Title),
		CookingTime:  int(math.Round(entry.CookingTime)),
		Difficulty:   recipe.Difficulty(entry.Difficulty),
		Ingredients:  ingredients,
		Instructions: entry.Instructions,
		Nutrition:    nutrition,
		DietaryTags:  entry.DietaryTags,
		MatchScore:   score,
	}
}

// generateContent performs one Gemini API call and returns the text of
// the first candidate.
func (c *Client) generateContent(ctx context.Context, reqBody generateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response candidates returned")
	}

	c.logger.Debug("Gemini API call successful",
		zap.Int("prompt_tokens", genResp.UsageMetadata.PromptTokenCount),
		zap.Int("candidate_tokens", genResp.UsageMetadata.CandidatesTokenCount),
	)

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// parseArray extracts and unmarshals the JSON array from a model
// response. Models occasionally wrap the payload in extra text, so the
// array is located by bracket scan before unmarshaling.
func (c *Client) parseArray(text string, out any) error {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON array found in response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return nil
}
