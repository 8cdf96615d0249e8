package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"damage-analyze-service/config"
)

// ValidationError marks an intake failure caused by the uploaded file
// itself (bad extension, oversized, not a decodable image). Handlers map
// it to a client error.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ProcessedImage is a validated upload ready for the LLM: the original
// bytes base64-encoded plus the format sniffed from the actual content.
type ProcessedImage struct {
	Name   string
	Base64 string
	Format string
}

// Processor validates and encodes uploaded images against the
// configured intake limits.
type Processor struct {
	cfg *config.Config
}

func NewProcessor(cfg *config.Config) *Processor {
	return &Processor{cfg: cfg}
}

// Validate checks the claimed extension and the byte length. It does not
// look at the content; Encode performs the structural check.
func (p *Processor) Validate(filename string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !p.cfg.AllowedExtensions[ext] {
		return &ValidationError{
			Reason: fmt.Sprintf("Invalid file type. Allowed: %s", p.cfg.ExtensionList()),
		}
	}

	if int64(len(data)) > p.cfg.MaxImageSize {
		return &ValidationError{
			Reason: fmt.Sprintf("File too large. Max size: %dMB", p.cfg.MaxImageSize/(1024*1024)),
		}
	}

	return nil
}

// Encode verifies that the bytes decode as a well-formed image and
// returns the base64 encoding of the original bytes together with the
// decoded format. The format comes from the content, not the filename,
// so a mislabeled but valid file is accepted with its actual format.
func (p *Processor) Encode(data []byte) (string, string, error) {
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", &ValidationError{
			Reason: fmt.Sprintf("Invalid image file: %v", err),
		}
	}

	return base64.StdEncoding.EncodeToString(data), format, nil
}

// Process runs validation and encoding for one upload.
func (p *Processor) Process(filename string, data []byte) (*ProcessedImage, error) {
	if err := p.Validate(filename, data); err != nil {
		return nil, err
	}

	encoded, format, err := p.Encode(data)
	if err != nil {
		return nil, err
	}

	return &ProcessedImage{
		Name:   filename,
		Base64: encoded,
		Format: format,
	}, nil
}
