package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const oembedTimeout = 5 * time.Second

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID returns the 11 character YouTube id in videoURL, or "".
func ExtractVideoID(videoURL string) string {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(videoURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// CanonicalVideoURL rewrites any recognised YouTube URL to its watch form.
// Unrecognised input is returned trimmed.
func CanonicalVideoURL(videoURL string) string {
	videoURL = strings.TrimSpace(videoURL)
	if id := ExtractVideoID(videoURL); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return videoURL
}

// MetadataClient looks video titles up through an oEmbed endpoint.
type MetadataClient struct {
	endpoint   string
	httpClient *http.Client
	cache      TitleCache
	logger     zerolog.Logger
}

// NewMetadataClient builds a client for endpoint. cache may be nil.
func NewMetadataClient(endpoint string, cache TitleCache, logger zerolog.Logger) *MetadataClient {
	return &MetadataClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: oembedTimeout},
		cache:      cache,
		logger:     logger.With().Str("component", "oembed").Logger(),
	}
}

// VideoTitle never fails: any problem is logged at debug level and yields "".
func (c *MetadataClient) VideoTitle(ctx context.Context, videoURL string) string {
	target := CanonicalVideoURL(videoURL)
	if target == "" {
		return ""
	}

	if c.cache != nil {
		if title, ok := c.cache.Get(ctx, target); ok {
			return title
		}
	}

	title, err := c.fetchTitle(ctx, target)
	if err != nil {
		c.logger.Debug().Err(err).Str("video_url", target).Msg("oembed lookup failed")
		return ""
	}

	if title != "" && c.cache != nil {
		c.cache.Set(ctx, target, title)
	}
	return title
}

func (c *MetadataClient) fetchTitle(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, oembedTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("url", target)
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed returned %d", resp.StatusCode)
	}

	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode oembed response: %w", err)
	}

	return strings.TrimSpace(body.Title), nil
}
