package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"damage-analyze-service/analyzer"
	"damage-analyze-service/config"
	"damage-analyze-service/imageproc"
)

const serviceName = "damage-analyze-service"

// Handlers holds the HTTP handlers for the damage analysis API.
type Handlers struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
}

func NewHandlers(cfg *config.Config, a *analyzer.Analyzer) *Handlers {
	return &Handlers{
		cfg:      cfg,
		analyzer: a,
	}
}

// Root returns service metadata.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Car Damage Detection API",
		"service": serviceName,
		"version": "1.0.0",
		"model":   h.cfg.Model(),
		"endpoints": gin.H{
			"analyze": "/analyze - POST - Analyze car damage from images",
			"health":  "/health - GET - Health check",
		},
	})
}

// Health returns service health and whether the LLM credential is set.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"model":          h.cfg.Model(),
		"api_configured": h.cfg.APIConfigured(),
	})
}

// Analyze accepts a multipart form with one or more image parts under
// "files" and an optional "custom_prompt" text field, and returns one
// analysis record per image in upload order.
func (h *Handlers) Analyze(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	customPrompt := c.PostForm("custom_prompt")

	images := make([]analyzer.NamedImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to read %s: %v", fh.Filename, err)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to read %s: %v", fh.Filename, err)})
			return
		}
		images = append(images, analyzer.NamedImage{Name: fh.Filename, Data: data})
	}

	results, err := h.analyzer.AnalyzeBatch(images, customPrompt)
	if err != nil {
		var verr *imageproc.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		log.Errorf("analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}
