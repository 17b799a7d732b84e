// Package draftgen turns a free-form instruction into a validated email draft using a language model.
package draftgen

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/clients/llm_client"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/models"
)

const opGenerate = "draftgen.generate"

// Generator builds drafts. It holds no per-call state and is safe for concurrent use.
type Generator struct {
	completer llm_client.Completer
	guidance  map[models.Tone]string
}

// NewGenerator creates a generator. guidance may be nil.
func NewGenerator(completer llm_client.Completer, guidance map[models.Tone]string) *Generator {
	return &Generator{
		completer: completer,
		guidance:  guidance,
	}
}

// Generate makes exactly one model call and returns a draft whose subject and body are both non-empty.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) (*models.EmailDraft, error) {
	if !req.Tone.Valid() {
		return nil, mailerr.Errorf(mailerr.KindInvalidInput, opGenerate, "unknown tone %q", req.Tone)
	}

	log.Debug().
		Str("tone", req.Tone.String()).
		Str("language", req.Language).
		Int("instruction_len", len(req.Instruction)).
		Msg("generating email draft")

	text, err := g.completer.Complete(ctx, BuildPrompt(req, g.guidance))
	if err != nil {
		var mErr *mailerr.Error
		if errors.As(err, &mErr) {
			return nil, err
		}
		return nil, mailerr.Wrap(mailerr.KindModel, opGenerate, "LLM request failed", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, mailerr.New(mailerr.KindEmptyResponse, opGenerate, "Gemini returned an empty response.")
	}

	fields, usedFallback, err := decodeDraftFields(text)
	if err != nil {
		if errors.Is(err, errNoJSONSpan) {
			return nil, mailerr.New(mailerr.KindMalformedOutput, opGenerate, "LLM output was not valid JSON").WithRaw(text)
		}
		return nil, mailerr.Wrap(mailerr.KindMalformedOutput, opGenerate, "LLM output was not valid JSON", err).WithRaw(text)
	}
	if usedFallback {
		log.Warn().Int("response_len", len(text)).Msg("model wrapped JSON in extra text, used span extraction")
	}

	draft := models.EmailDraft{
		Subject: fieldText(fields, "subject"),
		Body:    fieldText(fields, "body"),
	}
	if err := draft.Validate(); err != nil {
		return nil, mailerr.New(mailerr.KindIncompleteDraft, opGenerate, "AI returned an empty subject or body.").WithRaw(text)
	}

	return &draft, nil
}
