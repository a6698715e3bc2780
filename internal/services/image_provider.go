package services

import "context"

// ImageResult carries one generated image, either by URL or as base64 payload
// depending on what the provider returns.
type ImageResult struct {
	URL      string
	B64      string
	MimeType string
	Model    string
}

// ImageProvider abstracts the image-generation backends. Implementations
// normalize the pack aspect ratios onto whatever size enum the provider
// supports.
type ImageProvider interface {
	Name() string
	Model() string
	GenerateImage(ctx context.Context, prompt string, negativePrompt string, aspectRatio string) (*ImageResult, error)
}
