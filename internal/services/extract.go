package services

import (
	"context"
	"path/filepath"
	"strings"

	"shunya-backend/internal/models"
)

// VideoSource resolves a video link into transcript text and a title.
type VideoSource interface {
	Transcript(ctx context.Context, videoURL string) (text, title string, err error)
}

// ExtractService backs the extract endpoint. It never calls OpenRouter.
type ExtractService struct {
	files  *FileExtractService
	videos VideoSource
}

func NewExtractService(files *FileExtractService, videos VideoSource) *ExtractService {
	return &ExtractService{files: files, videos: videos}
}

func (s *ExtractService) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error) {
	if url := strings.TrimSpace(req.URL); url != "" {
		text, title, err := s.videos.Transcript(ctx, url)
		if err != nil {
			return nil, err
		}
		return &models.ExtractResponse{Text: text, Title: title, Source: "youtube"}, nil
	}

	filename := strings.TrimSpace(req.Filename)
	if strings.TrimSpace(req.File) == "" || filename == "" {
		return nil, &ValidationError{Message: "either url or file with filename is required"}
	}

	data, _, err := decodePayload(req.File, "file")
	if err != nil {
		return nil, err
	}

	text, source, err := s.files.ExtractText(filename, data)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(filename)
	return &models.ExtractResponse{
		Text:   text,
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Source: source,
	}, nil
}
