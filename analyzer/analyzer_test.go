package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"damage-analyze-service/config"
	"damage-analyze-service/imageproc"
	"damage-analyze-service/models"
	"damage-analyze-service/parser"
)

// fakeClient returns canned responses keyed by call order and can fail
// on selected calls.
type fakeClient struct {
	responses []string
	failCalls map[int]error
	calls     int
}

func (f *fakeClient) AnalyzeImage(prompt, imageBase64, imageFormat string) (string, error) {
	call := f.calls
	f.calls++
	if err, ok := f.failCalls[call]; ok {
		return "", err
	}
	if call < len(f.responses) {
		return f.responses[call], nil
	}
	return `{"damages": []}`, nil
}

func (f *fakeClient) SourceName() string { return "Fake" }

func testConfig() *config.Config {
	return &config.Config{
		MaxImageSize: 10 * 1024 * 1024,
		AllowedExtensions: map[string]bool{
			".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
		},
	}
}

func makePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func damagesJSON(severities ...int) string {
	items := make([]string, 0, len(severities))
	for i, s := range severities {
		items = append(items, fmt.Sprintf(
			`{"type": "Dent %d", "bbox": [0, 0, 10, 10], "severity": %d, "description": "test dent"}`, i, s))
	}
	return `{"damages": [` + strings.Join(items, ",") + `]}`
}

func TestBucketSeverity(t *testing.T) {
	tests := []struct {
		name       string
		severities []int
		expected   string
	}{
		{name: "two very minor findings", severities: []int{1, 1}, expected: models.SeverityMinor},
		{name: "boundary average 2.0", severities: []int{1, 3}, expected: models.SeverityMinor},
		{name: "boundary average 3.5 stays moderate", severities: []int{3, 4}, expected: models.SeverityModerate},
		{name: "above moderate boundary", severities: []int{4, 4}, expected: models.SeveritySevere},
		{name: "all severe", severities: []int{5, 5}, expected: models.SeveritySevere},
		{name: "no findings", severities: nil, expected: models.SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			damages := make([]models.DamageFinding, 0, len(tt.severities))
			for _, s := range tt.severities {
				damages = append(damages, models.DamageFinding{Severity: s})
			}
			if got := bucketSeverity(damages); got != tt.expected {
				t.Errorf("bucketSeverity(%v) = %q, want %q", tt.severities, got, tt.expected)
			}
		})
	}
}

func TestFinalizeDerivedFields(t *testing.T) {
	payload := parser.Payload{
		Damages: []models.DamageFinding{
			{Type: "Scratch", Severity: 2},
			{Type: "Dent", Severity: 4},
		},
	}

	result := finalize("car.jpg", payload)

	if result.ImageName != "car.jpg" {
		t.Errorf("ImageName = %q, want %q", result.ImageName, "car.jpg")
	}
	if result.TotalDamages != len(result.Damages) {
		t.Errorf("TotalDamages = %d, want %d", result.TotalDamages, len(result.Damages))
	}
	if result.OverallSeverity != models.SeverityModerate {
		t.Errorf("OverallSeverity = %q, want %q", result.OverallSeverity, models.SeverityModerate)
	}
}

func TestFinalizeErrorPayloadForcesEmptyDamages(t *testing.T) {
	payload := parser.Payload{
		Damages: []models.DamageFinding{{Type: "Scratch", Severity: 2}},
		Error:   "Unable to analyze image",
	}

	result := finalize("car.jpg", payload)

	if result.TotalDamages != 0 || len(result.Damages) != 0 {
		t.Errorf("error payload should force empty damages, got %d", result.TotalDamages)
	}
	if result.OverallSeverity != models.SeverityNone {
		t.Errorf("OverallSeverity = %q, want %q", result.OverallSeverity, models.SeverityNone)
	}
	if result.Error != "Unable to analyze image" {
		t.Errorf("Error = %q, want original diagnostic", result.Error)
	}
}

func TestAnalyzeBatchPreservesOrderAndCardinality(t *testing.T) {
	imgData := makePNG(t)
	client := &fakeClient{
		responses: []string{
			damagesJSON(1),
			damagesJSON(3, 4),
			damagesJSON(),
		},
	}
	a := New(testConfig(), client, nil)

	images := []NamedImage{
		{Name: "front.png", Data: imgData},
		{Name: "side.png", Data: imgData},
		{Name: "rear.png", Data: imgData},
	}

	results, err := a.AnalyzeBatch(images, "")
	if err != nil {
		t.Fatalf("AnalyzeBatch() error = %v", err)
	}
	if len(results) != len(images) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(images))
	}
	for i := range images {
		if results[i].ImageName != images[i].Name {
			t.Errorf("results[%d].ImageName = %q, want %q", i, results[i].ImageName, images[i].Name)
		}
	}
	if results[0].OverallSeverity != models.SeverityMinor {
		t.Errorf("results[0] severity = %q, want minor", results[0].OverallSeverity)
	}
	if results[1].OverallSeverity != models.SeverityModerate {
		t.Errorf("results[1] severity = %q, want moderate", results[1].OverallSeverity)
	}
	if results[2].OverallSeverity != models.SeverityNone {
		t.Errorf("results[2] severity = %q, want none", results[2].OverallSeverity)
	}
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	imgData := makePNG(t)
	client := &fakeClient{
		responses: []string{
			damagesJSON(2),
			"",
			damagesJSON(5, 5),
		},
		failCalls: map[int]error{1: errors.New("connection refused")},
	}
	a := New(testConfig(), client, nil)

	images := []NamedImage{
		{Name: "a.png", Data: imgData},
		{Name: "b.png", Data: imgData},
		{Name: "c.png", Data: imgData},
	}

	results, err := a.AnalyzeBatch(images, "")
	if err != nil {
		t.Fatalf("AnalyzeBatch() error = %v", err)
	}

	if results[0].OverallSeverity != models.SeverityMinor {
		t.Errorf("results[0] severity = %q, want minor", results[0].OverallSeverity)
	}
	if results[1].OverallSeverity != models.SeverityError {
		t.Errorf("results[1] severity = %q, want error", results[1].OverallSeverity)
	}
	if results[1].Error == "" || !strings.Contains(results[1].Error, "connection refused") {
		t.Errorf("results[1].Error = %q, want diagnostic with cause", results[1].Error)
	}
	if len(results[1].Damages) != 0 {
		t.Errorf("failed image should carry no damages, got %d", len(results[1].Damages))
	}
	if results[2].OverallSeverity != models.SeveritySevere {
		t.Errorf("results[2] severity = %q, want severe", results[2].OverallSeverity)
	}
}

func TestAnalyzeBatchUnparseableReply(t *testing.T) {
	imgData := makePNG(t)
	client := &fakeClient{responses: []string{"sorry, I cannot help with that"}}
	a := New(testConfig(), client, nil)

	results, err := a.AnalyzeBatch([]NamedImage{{Name: "x.png", Data: imgData}}, "")
	if err != nil {
		t.Fatalf("AnalyzeBatch() error = %v", err)
	}
	if results[0].OverallSeverity != models.SeverityNone {
		t.Errorf("severity = %q, want none", results[0].OverallSeverity)
	}
	if results[0].Error != parser.ParseFailureMessage {
		t.Errorf("Error = %q, want %q", results[0].Error, parser.ParseFailureMessage)
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	a := New(testConfig(), &fakeClient{}, nil)

	_, err := a.AnalyzeBatch(nil, "")
	if err == nil {
		t.Fatal("AnalyzeBatch(nil) expected error")
	}
	var verr *imageproc.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error type = %T, want *imageproc.ValidationError", err)
	}
}

func TestAnalyzeBatchRejectsBadUploadBeforeAnalysis(t *testing.T) {
	client := &fakeClient{}
	a := New(testConfig(), client, nil)

	images := []NamedImage{
		{Name: "ok.png", Data: makePNG(t)},
		{Name: "broken.png", Data: []byte("definitely not an image")},
	}

	_, err := a.AnalyzeBatch(images, "")
	if err == nil {
		t.Fatal("expected request-level validation error")
	}
	var verr *imageproc.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *imageproc.ValidationError", err)
	}
	if client.calls != 0 {
		t.Errorf("LLM called %d times before validation completed, want 0", client.calls)
	}
}

type recordingPublisher struct {
	published []interface{}
}

func (r *recordingPublisher) Publish(message interface{}) error {
	r.published = append(r.published, message)
	return nil
}

func TestAnalyzeBatchPublishesResults(t *testing.T) {
	pub := &recordingPublisher{}
	a := New(testConfig(), &fakeClient{}, pub)

	_, err := a.AnalyzeBatch([]NamedImage{{Name: "x.png", Data: makePNG(t)}}, "")
	if err != nil {
		t.Fatalf("AnalyzeBatch() error = %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}
	results, ok := pub.published[0].([]models.ImageAnalysisResult)
	if !ok {
		t.Fatalf("published message type = %T, want []models.ImageAnalysisResult", pub.published[0])
	}
	if len(results) != 1 || results[0].ImageName != "x.png" {
		t.Errorf("published results = %+v", results)
	}
}
