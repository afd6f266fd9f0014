// Package suggest produces title, description and tag suggestions for a
// video. It asks a generative model when one is configured and falls back to
// deterministic templates otherwise, so callers always get a usable answer.
package suggest

import (
	"context"
	"strings"

	"vidoptimize/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	KindTitle       = "title"
	KindDescription = "description"
	KindTags        = "tags"

	titleCount = 3
	tagCount   = 10

	defaultTitleSeed = "Amazing Video"
	defaultTagSeed   = "tutorial"
)

type TitleMetrics struct {
	ClickPotential   int `json:"clickPotential"`
	SEOScore         int `json:"seoScore"`
	EngagementFactor int `json:"engagementFactor"`
}

type TitleSuggestion struct {
	ID      int          `json:"id"`
	Title   string       `json:"title"`
	Score   float64      `json:"score"`
	Reason  string       `json:"reason"`
	Metrics TitleMetrics `json:"metrics"`
}

type DescriptionMetrics struct {
	KeywordDensity   float64 `json:"keywordDensity"`
	ReadabilityScore int     `json:"readabilityScore"`
	SEOScore         int     `json:"seoScore"`
	CharacterCount   int     `json:"characterCount"`
}

type DescriptionSuggestion struct {
	Description string             `json:"description"`
	Metrics     DescriptionMetrics `json:"metrics"`
}

type SuggestionSet struct {
	Titles      []TitleSuggestion     `json:"titles"`
	Description DescriptionSuggestion `json:"description"`
	Tags        []string              `json:"tags"`
}

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TitleLookup resolves the public title of a video URL, or "" when unknown.
type TitleLookup interface {
	VideoTitle(ctx context.Context, videoURL string) string
}

type Provider struct {
	generator Generator
	metadata  TitleLookup
	logger    zerolog.Logger
}

// NewProvider builds a Provider. A nil generator means every suggestion comes
// from the templates; a nil metadata lookup means no video titles are fetched.
func NewProvider(generator Generator, metadata TitleLookup, logger zerolog.Logger) *Provider {
	return &Provider{
		generator: generator,
		metadata:  metadata,
		logger:    logger.With().Str("component", "suggest").Logger(),
	}
}

func (p *Provider) VideoTitle(ctx context.Context, videoURL string) string {
	if p.metadata == nil {
		return ""
	}
	return p.metadata.VideoTitle(ctx, videoURL)
}

// Titles returns exactly three title suggestions. The current title seeds the
// prompt; without one the video's public title is looked up.
func (p *Provider) Titles(ctx context.Context, videoURL, currentTitle string) []TitleSuggestion {
	seed := currentTitle
	if seed == "" {
		seed = p.VideoTitle(ctx, videoURL)
	}
	return p.titlesFor(ctx, seed)
}

// TitlesWithVideoTitle always looks the public title up and returns it
// alongside three suggestions seeded by currentTitle, or by the public title
// when currentTitle is empty.
func (p *Provider) TitlesWithVideoTitle(ctx context.Context, videoURL, currentTitle string) ([]TitleSuggestion, string) {
	videoTitle := p.VideoTitle(ctx, videoURL)
	return p.titlesFor(ctx, firstNonEmpty(currentTitle, videoTitle)), videoTitle
}

func (p *Provider) Description(ctx context.Context, videoURL, currentDescription string) DescriptionSuggestion {
	seed := currentDescription
	if seed == "" {
		seed = descriptionSeed(p.VideoTitle(ctx, videoURL))
	}
	return p.descriptionFor(ctx, seed)
}

// Tags returns exactly ten distinct tags.
func (p *Provider) Tags(ctx context.Context, videoURL, title string) []string {
	seed := title
	if seed == "" {
		seed = p.VideoTitle(ctx, videoURL)
	}
	return p.tagsFor(ctx, seed)
}

// All looks the video title up at most once and generates the three kinds of
// suggestion concurrently.
func (p *Provider) All(ctx context.Context, videoURL, currentTitle, currentDescription string) SuggestionSet {
	var videoTitle string
	if currentTitle == "" || currentDescription == "" {
		videoTitle = p.VideoTitle(ctx, videoURL)
	}

	titleSeed := firstNonEmpty(currentTitle, videoTitle)
	descSeed := currentDescription
	if descSeed == "" {
		descSeed = descriptionSeed(videoTitle)
	}

	var set SuggestionSet
	var g errgroup.Group
	g.Go(func() error {
		set.Titles = p.titlesFor(ctx, titleSeed)
		return nil
	})
	g.Go(func() error {
		set.Description = p.descriptionFor(ctx, descSeed)
		return nil
	})
	g.Go(func() error {
		set.Tags = p.tagsFor(ctx, titleSeed)
		return nil
	})
	_ = g.Wait()

	return set
}

func (p *Provider) titlesFor(ctx context.Context, seed string) []TitleSuggestion {
	if seed == "" {
		seed = defaultTitleSeed
	}
	fallback := fallbackTitles(seed)

	text, ok := p.generate(ctx, KindTitle, titlePrompt(seed))
	if !ok {
		return fallback
	}

	lines := parseTitleLines(text)
	if len(lines) == 0 {
		metrics.RecordSuggestion(KindTitle, metrics.SourceFallback)
		return fallback
	}

	titles := make([]TitleSuggestion, 0, titleCount)
	for idx, line := range lines {
		titles = append(titles, aiTitle(idx, line))
	}
	for len(titles) < titleCount {
		titles = append(titles, fallback[len(titles)])
	}

	metrics.RecordSuggestion(KindTitle, metrics.SourceAI)
	return titles
}

func (p *Provider) descriptionFor(ctx context.Context, seed string) DescriptionSuggestion {
	text, ok := p.generate(ctx, KindDescription, descriptionPrompt(seed))
	if !ok {
		return fallbackDescription()
	}

	metrics.RecordSuggestion(KindDescription, metrics.SourceAI)
	return DescriptionSuggestion{
		Description: text,
		Metrics: DescriptionMetrics{
			KeywordDensity:   7.5,
			ReadabilityScore: 80,
			SEOScore:         85,
			CharacterCount:   characterCount(text),
		},
	}
}

func (p *Provider) tagsFor(ctx context.Context, seed string) []string {
	if seed == "" {
		seed = defaultTagSeed
	}

	text, ok := p.generate(ctx, KindTags, tagsPrompt(seed))
	if !ok {
		return fallbackTags()
	}

	tags := parseTags(text)
	if len(tags) == 0 {
		metrics.RecordSuggestion(KindTags, metrics.SourceFallback)
		return fallbackTags()
	}

	metrics.RecordSuggestion(KindTags, metrics.SourceAI)
	return padTags(tags)
}

// generate reports false when the caller should use the templates. Template
// use is counted here for the no-generator and error paths.
func (p *Provider) generate(ctx context.Context, kind, prompt string) (string, bool) {
	if p.generator == nil {
		metrics.RecordSuggestion(kind, metrics.SourceFallback)
		return "", false
	}

	text, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		p.logger.Warn().Err(err).Str("kind", kind).Msg("generative call failed, using templates")
		metrics.RecordSuggestion(kind, metrics.SourceFallback)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		p.logger.Warn().Str("kind", kind).Msg("generative call returned no text, using templates")
		metrics.RecordSuggestion(kind, metrics.SourceFallback)
		return "", false
	}

	return text, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
