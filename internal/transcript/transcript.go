// Package transcript fetches caption text for public videos.
//
// The watch page embeds a player response listing caption tracks; the chosen
// track is downloaded as timed-text XML and flattened into plain text.
package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/logging"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	maxPageBytes   = 8 << 20
	playerMarker   = "ytInitialPlayerResponse"
)

// Segment is one caption line.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Transcript is the caption text of one video.
type Transcript struct {
	VideoID   string    `json:"videoId"`
	Language  string    `json:"language"`
	Generated bool      `json:"generated"`
	Text      string    `json:"text"`
	Segments  []Segment `json:"segments"`
}

// Fetcher downloads transcripts.
type Fetcher struct {
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithBaseURL points the fetcher at another origin (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(baseURL, "/") }
}

// NewFetcher builds a fetcher from cfg's transcript settings.
func NewFetcher(cfg *config.Config, logger *log.Logger, opts ...Option) *Fetcher {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	perSecond := cfg.TranscriptRequestsPerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	f := &Fetcher{
		baseURL:    strings.TrimRight(cfg.TranscriptBaseURL, "/"),
		language:   cfg.TranscriptLanguage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:     logging.With(logger, "transcript"),
	}
	if f.baseURL == "" {
		f.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves rawURL to a video and returns its transcript.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Transcript, error) {
	videoID, err := ResolveVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	page, err := f.get(ctx, videoID, f.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return nil, err
	}
	player, err := extractPlayerResponse(page)
	if err != nil {
		return nil, errors.NewTranscriptFailed(videoID, err)
	}

	if player.Captions == nil {
		if s := player.PlayabilityStatus.Status; s != "" && s != "OK" {
			f.logger.Debug("video not playable", "video", videoID, "status", s, "reason", player.PlayabilityStatus.Reason)
			return nil, errors.NewTranscriptUnavailable(videoID)
		}
		return nil, errors.NewTranscriptDisabled(videoID)
	}
	tracks := player.Captions.Renderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.NewTranscriptUnavailable(videoID)
	}
	track := selectTrack(tracks, f.language)

	trackURL, err := f.resolve(track.BaseURL)
	if err != nil {
		return nil, errors.NewTranscriptFailed(videoID, err)
	}
	body, err := f.get(ctx, videoID, trackURL)
	if err != nil {
		return nil, err
	}
	segments, err := parseTimedText(body)
	if err != nil {
		return nil, errors.NewTranscriptFailed(videoID, err)
	}

	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	if len(parts) == 0 {
		return nil, errors.NewTranscriptUnavailable(videoID)
	}

	f.logger.Debug("fetched transcript", "video", videoID, "language", track.LanguageCode, "segments", len(segments))
	return &Transcript{
		VideoID:   videoID,
		Language:  track.LanguageCode,
		Generated: track.Kind == "asr",
		Text:      strings.Join(parts, " "),
		Segments:  segments,
	}, nil
}

func (f *Fetcher) get(ctx context.Context, videoID, target string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.NewCancelled("transcript fetch")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewTranscriptFailed(videoID, err)
	}
	if f.language != "" {
		req.Header.Set("Accept-Language", f.language)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("transcript fetch")
		}
		return nil, errors.NewTranscriptFailed(videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewTranscriptFailed(videoID, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, errors.NewTranscriptFailed(videoID, err)
	}
	return body, nil
}

// resolve makes a caption track URL absolute against the base URL.
func (f *Fetcher) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("caption track has no url")
	}
	base, err := url.Parse(f.baseURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// extractPlayerResponse decodes the JSON object assigned to the player marker.
func extractPlayerResponse(page []byte) (*playerResponse, error) {
	s := string(page)
	i := strings.Index(s, playerMarker)
	if i < 0 {
		return nil, fmt.Errorf("player response not found")
	}
	s = s[i+len(playerMarker):]
	j := strings.IndexByte(s, '{')
	if j < 0 {
		return nil, fmt.Errorf("player response not found")
	}

	var pr playerResponse
	if err := json.NewDecoder(strings.NewReader(s[j:])).Decode(&pr); err != nil {
		return nil, fmt.Errorf("malformed player response: %w", err)
	}
	return &pr, nil
}

// selectTrack prefers a manual track in language, then a generated one in
// language, then any manual track, then the first track.
func selectTrack(tracks []captionTrack, language string) captionTrack {
	var generated *captionTrack
	for i, t := range tracks {
		if language == "" || !strings.EqualFold(t.LanguageCode, language) {
			continue
		}
		if t.Kind != "asr" {
			return t
		}
		if generated == nil {
			generated = &tracks[i]
		}
	}
	if generated != nil {
		return *generated
	}
	for _, t := range tracks {
		if t.Kind != "asr" {
			return t
		}
	}
	return tracks[0]
}

type timedText struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(data []byte) ([]Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("malformed timed text: %w", err)
	}
	segments := make([]Segment, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		segments = append(segments, Segment{
			Start:    start,
			Duration: dur,
			Text:     strings.Join(strings.Fields(html.UnescapeString(t.Body)), " "),
		})
	}
	return segments, nil
}
