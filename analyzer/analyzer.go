package analyzer

import (
	"fmt"
	"time"

	"github.com/apex/log"

	"damage-analyze-service/config"
	"damage-analyze-service/imageproc"
	"damage-analyze-service/llm"
	"damage-analyze-service/metrics"
	"damage-analyze-service/models"
	"damage-analyze-service/parser"
	"damage-analyze-service/prompts"
)

// Severity bucket boundaries over the mean per-damage severity. These
// are policy constants, tunable if assessors disagree with the cutoffs.
const (
	minorMaxAvgSeverity    = 2.0
	moderateMaxAvgSeverity = 3.5
)

// NamedImage is one uploaded image: its original filename and raw bytes.
type NamedImage struct {
	Name string
	Data []byte
}

// ResultPublisher receives completed batch results. *rabbitmq.Publisher
// satisfies it; a nil publisher disables publishing.
type ResultPublisher interface {
	Publish(message interface{}) error
}

// Analyzer runs the per-image damage analysis pipeline: intake, prompt
// construction, LLM call, response recovery, aggregation.
type Analyzer struct {
	processor *imageproc.Processor
	client    llm.Client
	publisher ResultPublisher
}

func New(cfg *config.Config, client llm.Client, publisher ResultPublisher) *Analyzer {
	return &Analyzer{
		processor: imageproc.NewProcessor(cfg),
		client:    client,
		publisher: publisher,
	}
}

// AnalyzeBatch analyzes the uploaded images in order and returns one
// result per image. Intake failures and empty batches are request-level
// errors; once per-image analysis starts, a failure is confined to its
// own image and surfaces as an error-flagged result.
func (a *Analyzer) AnalyzeBatch(images []NamedImage, customInstructions string) ([]models.ImageAnalysisResult, error) {
	if len(images) == 0 {
		return nil, &imageproc.ValidationError{Reason: "No files provided"}
	}

	metrics.RequestImages.Observe(float64(len(images)))

	// Validate and encode everything before the first LLM call, so a bad
	// upload rejects the whole request instead of burning API calls.
	processed := make([]*imageproc.ProcessedImage, 0, len(images))
	for _, img := range images {
		p, err := a.processor.Process(img.Name, img.Data)
		if err != nil {
			return nil, err
		}
		processed = append(processed, p)
	}

	results := make([]models.ImageAnalysisResult, 0, len(processed))
	for _, img := range processed {
		results = append(results, a.analyzeOne(img, customInstructions))
	}

	if a.publisher != nil {
		if err := a.publisher.Publish(results); err != nil {
			metrics.PublishErrorTotal.Inc()
			log.Errorf("failed to publish analysis results: %v", err)
		}
	}

	return results, nil
}

// analyzeOne runs the pipeline for a single image. It never returns an
// error: any failure degrades to an error-flagged result so the rest of
// the batch proceeds.
func (a *Analyzer) analyzeOne(img *imageproc.ProcessedImage, customInstructions string) models.ImageAnalysisResult {
	start := time.Now()

	prompt := prompts.Build(customInstructions)

	rawText, err := a.client.AnalyzeImage(prompt, img.Base64, img.Format)
	if err != nil {
		log.Errorf("%s analysis failed for %s: %v", a.client.SourceName(), img.Name, err)
		metrics.ImagesAnalyzedTotal.WithLabelValues("llm_error").Inc()
		metrics.AnalyzeDurationSeconds.Observe(time.Since(start).Seconds())
		return errorResult(img.Name, fmt.Sprintf("%s API error: %v", a.client.SourceName(), err))
	}

	payload := parser.ParsePayload(rawText)

	result := finalize(img.Name, payload)
	metrics.ImagesAnalyzedTotal.WithLabelValues(outcomeLabel(payload)).Inc()
	metrics.AnalyzeDurationSeconds.Observe(time.Since(start).Seconds())

	log.Infof("analyzed %s: %d damages, severity %s", img.Name, result.TotalDamages, result.OverallSeverity)
	return result
}

// finalize attaches image identity and derives the damage count and
// overall severity bucket from the recovered payload.
func finalize(imageName string, payload parser.Payload) models.ImageAnalysisResult {
	damages := payload.Damages
	if damages == nil || payload.Error != "" {
		damages = []models.DamageFinding{}
	}

	return models.ImageAnalysisResult{
		ImageName:       imageName,
		Damages:         damages,
		TotalDamages:    len(damages),
		OverallSeverity: bucketSeverity(damages),
		Error:           payload.Error,
	}
}

// errorResult is the record produced when an image's analysis failed
// entirely: damages forced empty, severity forced to "error".
func errorResult(imageName, message string) models.ImageAnalysisResult {
	return models.ImageAnalysisResult{
		ImageName:       imageName,
		Damages:         []models.DamageFinding{},
		TotalDamages:    0,
		OverallSeverity: models.SeverityError,
		Error:           message,
	}
}

func bucketSeverity(damages []models.DamageFinding) string {
	if len(damages) == 0 {
		return models.SeverityNone
	}

	sum := 0
	for _, d := range damages {
		sum += d.Severity
	}
	avg := float64(sum) / float64(len(damages))

	switch {
	case avg <= minorMaxAvgSeverity:
		return models.SeverityMinor
	case avg <= moderateMaxAvgSeverity:
		return models.SeverityModerate
	default:
		return models.SeveritySevere
	}
}

func outcomeLabel(payload parser.Payload) string {
	switch {
	case payload.Error == "":
		return "ok"
	case payload.Error == parser.ParseFailureMessage:
		return "parse_error"
	default:
		return "model_error"
	}
}
