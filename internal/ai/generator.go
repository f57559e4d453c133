package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"listinglab/internal/models"
	"listinglab/utils"
)

// GenerationError reports an AI call whose response could not be turned into
// an optimized listing.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate optimized listing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generate optimized listing: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Completer is the text-generation capability the Generator runs on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator rewrites a raw listing into an optimized one via the model.
type Generator struct {
	Client Completer
}

// NewGenerator creates a generator backed by client.
func NewGenerator(client Completer) *Generator {
	return &Generator{Client: client}
}

const promptTemplate = `You are an Amazon listing optimization expert.

ASIN: %s

Original Product Data:
Title: %s
Bullets: %s
Description: %s

Please generate:
1. Optimized Title - keyword-rich and clear.
2. 5 concise bullet points highlighting benefits and features.
3. A persuasive product description (max 300 words).
4. 4-6 relevant keyword phrases for SEO.

Important guidelines:
- Do NOT use any emojis, special characters, or decorative symbols.
- Do NOT use markdown formatting (no **bold**, _italics_, or lists with asterisks).
- Output clean plain text only.
- Return ONLY valid JSON with no extra commentary, explanation, or formatting.

Return the response strictly in this format:

{
  "optimized_title": "...",
  "optimized_bullets": ["...", "...", "...", "...", "..."],
  "optimized_description": "...",
  "keywords": ["...", "...", "..."]
}`

func buildPrompt(original models.RawListing) string {
	return fmt.Sprintf(promptTemplate,
		original.ASIN,
		original.Title,
		strings.Join(original.BulletPoints, "\n"),
		original.Description,
	)
}

// Optimize asks the model to rewrite the listing and parses its response.
// The model is asked for bare JSON, but the response is treated as free-form
// text that merely contains a JSON object.
func (g *Generator) Optimize(ctx context.Context, original models.RawListing) (models.OptimizedListing, error) {
	text, err := g.Client.Complete(ctx, buildPrompt(original))
	if err != nil {
		return models.OptimizedListing{}, &GenerationError{Reason: "model call failed", Err: err}
	}

	span, ok := FindJSONObject(text)
	if !ok {
		return models.OptimizedListing{}, &GenerationError{Reason: "no JSON found"}
	}

	var out models.OptimizedListing
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return models.OptimizedListing{}, &GenerationError{Reason: "invalid AI response", Err: err}
	}
	if err := validate(out); err != nil {
		return models.OptimizedListing{}, &GenerationError{Reason: "invalid AI response", Err: err}
	}

	// The model occasionally repeats a keyword phrase.
	out.Keywords = utils.UniqueStrings(out.Keywords)
	return out, nil
}

func validate(l models.OptimizedListing) error {
	switch {
	case l.OptimizedTitle == "":
		return errors.New("missing optimized_title")
	case len(l.OptimizedBullets) == 0:
		return errors.New("missing optimized_bullets")
	case l.OptimizedDescription == "":
		return errors.New("missing optimized_description")
	case len(l.Keywords) == 0:
		return errors.New("missing keywords")
	}
	return nil
}
