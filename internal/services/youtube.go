package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"

	"shunya-backend/internal/logger"
)

var preferredCaptionLanguages = []string{"en", "en-US", "en-GB"}

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([\w-]{11})`)

// ExtractVideoID returns the 11 character video id of a YouTube link, or ""
// when url is not one.
func ExtractVideoID(url string) string {
	m := youtubeIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// YouTubeService turns a video link into transcript text for canvas file
// nodes.
type YouTubeService struct {
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
	}
}

// Transcript fetches the captions of the video at videoURL along with its
// title. A missing title is not an error.
func (s *YouTubeService) Transcript(ctx context.Context, videoURL string) (text, title string, err error) {
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return "", "", &ValidationError{Message: "url is not a YouTube video link"}
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	transcript, err := s.transcriptAPI.GetTranscript(videoID, preferredCaptionLanguages)
	if err != nil {
		// Fallback: request any available language
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", "", &FetchError{Source: "YouTube transcript", Err: err}
		}
	}

	var b strings.Builder
	for _, entry := range transcript.Entries {
		line := strings.TrimSpace(entry.Text)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString(" ")
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", "", &ValidationError{Message: "subtitle track is empty"}
	}

	return text, s.title(ctx, videoID), nil
}

func (s *YouTubeService) title(ctx context.Context, videoID string) string {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil || strings.TrimSpace(video.Title) == "" {
		logger.WithContext(ctx).WithError(err).Warnf("could not resolve title for video %s", videoID)
		return fmt.Sprintf("YouTube video %s", videoID)
	}
	return strings.TrimSpace(video.Title)
}
