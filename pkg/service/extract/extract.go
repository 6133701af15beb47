// Package extract turns journal and chat text into candidate memories with a
// completion provider.
package extract

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/secmon-lab/mnemos/pkg/utils/retry"
)

//go:embed prompt/extract_system.md
var extractSystemPromptTmpl string

var extractSystemPrompt = template.Must(template.New("extract_system").Parse(extractSystemPromptTmpl))

const providerName = "completion"

// Source identifies the text candidates are extracted from
type Source struct {
	Type types.SourceType
	ID   string
	Text string
}

type llmMemory struct {
	Category   string  `json:"category"`
	Fact       string  `json:"fact"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
}

type llmResponse struct {
	Memories []llmMemory `json:"memories"`
}

// Extractor asks the completion provider for candidate memories
type Extractor struct {
	completer interfaces.Completer
	policy    retry.Policy
}

// Option is a functional option for Extractor configuration
type Option func(*Extractor)

// WithRetryPolicy overrides the retry policy around completion calls
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Extractor) {
		e.policy = p
		e.policy.Provider = providerName
	}
}

// New creates an Extractor
func New(completer interfaces.Completer, opts ...Option) (*Extractor, error) {
	if completer == nil {
		return nil, goerr.New("completer is required")
	}

	e := &Extractor{
		completer: completer,
		policy:    retry.DefaultPolicy(providerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract returns unvalidated candidate memories for src. Callers validate
// them before persisting.
func (e *Extractor) Extract(ctx context.Context, src Source) ([]*model.Memory, error) {
	if strings.TrimSpace(src.Text) == "" {
		return nil, nil
	}

	systemPrompt, err := buildSystemPrompt()
	if err != nil {
		return nil, err
	}

	raw, err := retry.Do(ctx, e.policy, func(ctx context.Context) (string, error) {
		return e.completer.Complete(ctx, src.Text, interfaces.CompleteOptions{
			SystemPrompt: systemPrompt,
			JSON:         true,
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract memories",
			goerr.V(model.SourceTypeKey, src.Type),
			goerr.V(model.SourceIDKey, src.ID),
		)
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse extraction response", goerr.V("response", raw))
	}

	candidates := make([]*model.Memory, 0, len(resp.Memories))
	for _, m := range resp.Memories {
		candidates = append(candidates, &model.Memory{
			Category:   types.Category(strings.ToLower(strings.TrimSpace(m.Category))),
			Fact:       strings.TrimSpace(m.Fact),
			Confidence: m.Confidence,
			Context:    strings.TrimSpace(m.Context),
			SourceType: src.Type,
			SourceID:   src.ID,
		})
	}
	return candidates, nil
}

func buildSystemPrompt() (string, error) {
	var buf bytes.Buffer
	if err := extractSystemPrompt.Execute(&buf, struct {
		Categories []types.Category
	}{
		Categories: types.AllCategories(),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute extract system prompt template")
	}
	return buf.String(), nil
}

// stripCodeFence removes a surrounding ``` fence some models add in JSON mode
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
