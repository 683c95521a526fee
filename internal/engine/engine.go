package engine

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/models"
)

//go:embed prompts/enemy_flavor.txt
var enemyFlavorPrompt string

//go:embed prompts/narrate.txt
var narratePrompt string

var (
	enemyFlavorTmpl = template.Must(template.New("enemy_flavor").Parse(enemyFlavorPrompt))
	narrateTmpl     = template.Must(template.New("narrate").Parse(narratePrompt))
)

// FlavorRequest is what the run host knows when it asks for text.
type FlavorRequest struct {
	Region      models.Region
	EnemyName   string
	Description string
	IsBoss      bool
	Sanity      int
	Resource    int
}

// Flavor is opaque text attached to an encounter. The combat core never
// parses it.
type Flavor struct {
	Enemy     string `yaml:"flavor"`
	Narration string `yaml:"-"`
}

// Provider produces flavor text for an encounter.
type Provider interface {
	Flavor(ctx context.Context, req FlavorRequest) (Flavor, error)
}

type Engine struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewEngine(ctx context.Context, apiKey, modelName string) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &Engine{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (e *Engine) Close() {
	e.client.Close()
}

// Flavor fetches the enemy description and the region narration in parallel.
func (e *Engine) Flavor(ctx context.Context, req FlavorRequest) (Flavor, error) {
	var out Flavor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := e.generate(gctx, enemyFlavorTmpl, req)
		if err != nil {
			return fmt.Errorf("enemy flavor: %w", err)
		}
		var parsed Flavor
		clean := cleanYAML(text)
		if err := yaml.Unmarshal([]byte(clean), &parsed); err != nil {
			return fmt.Errorf("failed to parse flavor YAML: %w\nOutput was: %s", err, clean)
		}
		out.Enemy = strings.TrimSpace(parsed.Enemy)
		return nil
	})
	g.Go(func() error {
		text, err := e.generate(gctx, narrateTmpl, req)
		if err != nil {
			return fmt.Errorf("narration: %w", err)
		}
		out.Narration = strings.TrimSpace(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Flavor{}, err
	}
	return out, nil
}

func (e *Engine) generate(ctx context.Context, tmpl *template.Template, req FlavorRequest) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req); err != nil {
		return "", err
	}

	resp, err := e.model.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return string(text), nil
}

func cleanYAML(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// WithFallback returns a provider that answers from fallback whenever
// primary fails.
func WithFallback(primary, fallback Provider) Provider {
	return fallbackProvider{primary: primary, fallback: fallback}
}

type fallbackProvider struct {
	primary, fallback Provider
}

func (f fallbackProvider) Flavor(ctx context.Context, req FlavorRequest) (Flavor, error) {
	out, err := f.primary.Flavor(ctx, req)
	if err == nil && out.Enemy != "" {
		return out, nil
	}
	if err != nil {
		logger.Log.WithError(err).WithField("region", req.Region).Warn("Flavor provider failed, using fallback")
	}
	return f.fallback.Flavor(ctx, req)
}
