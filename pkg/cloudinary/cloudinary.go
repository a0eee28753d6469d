package cloudinary

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Publisher uploads rendered drawings and returns their delivery URLs.
type Publisher struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary publisher.
func New(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Publisher{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Publish uploads a PNG under a deterministic public id, replacing any
// earlier upload of the same drawing.
func (p *Publisher) Publish(ctx context.Context, name string, image []byte) (string, error) {
	overwrite := true
	params := uploader.UploadParams{
		Folder:       p.folder,
		PublicID:     PublicID(name),
		ResourceType: "image",
		Overwrite:    &overwrite,
	}

	result, err := p.client.Upload.Upload(ctx, bytes.NewReader(image), params)
	if err != nil {
		return "", fmt.Errorf("failed to upload drawing: %w", err)
	}

	p.logger.Info().Str("public_id", result.PublicID).Msg("drawing published to cloudinary")

	return result.SecureURL, nil
}

// PublicID reduces a name to the characters Cloudinary accepts in ids.
func PublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		return "drawing"
	}
	return base
}
