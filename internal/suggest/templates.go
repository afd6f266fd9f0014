package suggest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const aiTitleReason = "AI-generated suggestion"

const fallbackDescriptionText = "Discover everything you need to know in this comprehensive video guide. \n\n" +
	"In this video, you'll learn:\n" +
	"- Key concepts and fundamentals\n" +
	"- Step-by-step practical demonstrations\n" +
	"- Expert tips and best practices\n" +
	"- Common mistakes to avoid\n\n" +
	"Whether you're a beginner or looking to advance your skills, this tutorial covers all the essential information.\n\n" +
	"Timestamps:\n" +
	"0:00 - Introduction\n" +
	"2:15 - Getting Started\n" +
	"5:30 - Main Content\n" +
	"12:45 - Advanced Techniques\n" +
	"18:20 - Conclusion\n\n" +
	"Subscribe for more helpful content!\n\n" +
	"#tutorial #howto #guide #2025"

var defaultTags = []string{
	"tutorial",
	"howto",
	"guide",
	"education",
	"2025",
	"tips",
	"tricks",
	"complete guide",
	"beginners",
	"step by step",
}

var (
	listMarker    = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	tagSeparators = regexp.MustCompile(`,\s*`)
)

func titlePrompt(seed string) string {
	return "You are a helpful assistant that suggests creative, SEO-friendly YouTube video titles.\n" +
		"Provide 3 short distinct title suggestions for the following seed title. Return each suggestion on a new line only.\n" +
		"Seed title: \"" + seed + "\"\n" +
		"Include a short reason for each suggestion in parentheses after the title."
}

func descriptionPrompt(seed string) string {
	return "Write an engaging YouTube video description (approx 150-300 words) for the following seed. " +
		"Include timestamps, hashtags, and a short call-to-action.\n\nSeed:\n" + seed
}

func tagsPrompt(seed string) string {
	return "Provide a comma-separated list of 10 short tags for the following video title:\n" + seed
}

func descriptionSeed(videoTitle string) string {
	if videoTitle == "" {
		videoTitle = "Video"
	}
	return "This video titled \"" + videoTitle + "\" covers important topics."
}

func fallbackTitles(seed string) []TitleSuggestion {
	return []TitleSuggestion{
		{
			ID:      1,
			Title:   seed + " - Complete Guide 2025",
			Score:   9.2,
			Reason:  "High engagement keywords with year specificity",
			Metrics: TitleMetrics{ClickPotential: 92, SEOScore: 88, EngagementFactor: 95},
		},
		{
			ID:      2,
			Title:   "How to " + seed + " | Step-by-Step Tutorial",
			Score:   8.8,
			Reason:  "Tutorial format with clear value proposition",
			Metrics: TitleMetrics{ClickPotential: 87, SEOScore: 90, EngagementFactor: 86},
		},
		{
			ID:      3,
			Title:   seed + " - Everything You Need to Know",
			Score:   8.5,
			Reason:  "Comprehensive coverage indicator",
			Metrics: TitleMetrics{ClickPotential: 85, SEOScore: 83, EngagementFactor: 88},
		},
	}
}

func aiTitle(idx int, title string) TitleSuggestion {
	return TitleSuggestion{
		ID:     idx + 1,
		Title:  title,
		Score:  8.0 - float64(idx)*0.5,
		Reason: aiTitleReason,
		Metrics: TitleMetrics{
			ClickPotential:   90 - idx*2,
			SEOScore:         88 - idx,
			EngagementFactor: 92 - idx*2,
		},
	}
}

func fallbackDescription() DescriptionSuggestion {
	return DescriptionSuggestion{
		Description: fallbackDescriptionText,
		Metrics: DescriptionMetrics{
			KeywordDensity:   8.5,
			ReadabilityScore: 82,
			SEOScore:         88,
			CharacterCount:   characterCount(fallbackDescriptionText),
		},
	}
}

func fallbackTags() []string {
	tags := make([]string, len(defaultTags))
	copy(tags, defaultTags)
	return tags
}

// parseTitleLines keeps the first three non-empty lines, without list markers.
func parseTitleLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == titleCount {
			break
		}
	}
	return lines
}

// parseTags treats newlines as commas and keeps the first ten unique,
// non-empty entries.
func parseTags(text string) []string {
	text = strings.ReplaceAll(text, "\n", ", ")

	var tags []string
	seen := make(map[string]struct{})
	for _, raw := range tagSeparators.Split(text, -1) {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == tagCount {
			break
		}
	}
	return tags
}

// padTags fills up to ten tags from the defaults, skipping ones already present.
func padTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		seen[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range defaultTags {
		if len(tags) >= tagCount {
			break
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

func characterCount(s string) int {
	return utf8.RuneCountInString(s)
}
