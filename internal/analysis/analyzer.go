package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/riverbend-studio/renamer/internal/captioner"
	"github.com/riverbend-studio/renamer/internal/models"
	"github.com/riverbend-studio/renamer/internal/storage"
)

// ErrModelUnavailable is returned when no captioning backend was
// configured at startup.
var ErrModelUnavailable = errors.New("captioning model not configured")

// Prompt is the instruction template sent with every image.
const Prompt = `Analyze this image in detail.
Generate a descriptive image filename using only these rules:
* Relevant keywords describing the image, separated by underscores.
* Lowercase letters only.
* No special characters.
* Keep it short and accurate (max 5-6 words).
Respond ONLY with the image filename (no extension).
Example: child_running_in_the_rain`

// captionResult carries one worker's outcome back to the orchestrator.
// Failures travel as values; nothing panics across the pool boundary.
type captionResult struct {
	imageID string
	name    string
	err     error
}

// Analyzer fans a session's images out to the captioning backend with
// bounded concurrency and applies results to the session as they land.
type Analyzer struct {
	store       *storage.SessionStore
	captioner   captioner.Captioner
	model       string
	temperature float64
	workers     int
	timeout     time.Duration
}

func New(store *storage.SessionStore, c captioner.Captioner, model string, temperature float64, workers int, timeout time.Duration) *Analyzer {
	return &Analyzer{
		store:       store,
		captioner:   c,
		model:       model,
		temperature: temperature,
		workers:     workers,
		timeout:     timeout,
	}
}

// AnalyzeSession captions every image in the session. Each image runs as
// an independent unit of work with its own deadline; one image's failure
// is recorded on its record and never aborts the others. The call returns
// once all units have completed, with every record in analyzed or error
// state and the session marked analyzed.
func (a *Analyzer) AnalyzeSession(ctx context.Context, sessionID string) ([]*models.ImageRecord, error) {
	session, err := a.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if a.captioner == nil {
		return nil, ErrModelUnavailable
	}

	images := session.ImageList()
	slog.Info("Starting analysis", "session_id", sessionID, "images", len(images))

	var wg sync.WaitGroup
	results := make(chan captionResult, len(images))
	sem := make(chan struct{}, a.workers)

	for _, record := range images {
		wg.Add(1)
		go func(record *models.ImageRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			unitCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			name, err := a.analyzeImage(unitCtx, record)
			results <- captionResult{imageID: record.ID, name: name, err: err}
		}(record)
	}

	wg.Wait()
	close(results)

	for result := range results {
		err := a.store.Update(sessionID, func(session *models.Session) {
			record, ok := session.Images[result.imageID]
			if !ok {
				return
			}
			if result.err != nil {
				record.Status = models.ImageError
				record.Error = result.err.Error()
				return
			}
			record.SuggestedName = result.name
			record.Status = models.ImageAnalyzed
		})
		if err != nil {
			// Session was deleted out from under the analysis call.
			return nil, err
		}
		if result.err != nil {
			slog.Error("Analysis failed", "session_id", sessionID, "image_id", result.imageID, "err", result.err)
		} else {
			slog.Info("Analysis complete", "session_id", sessionID, "image_id", result.imageID, "suggested_name", result.name)
		}
	}

	if err := a.store.SetStatus(sessionID, models.SessionAnalyzed); err != nil {
		return nil, err
	}

	updated, err := a.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return updated.ImageList(), nil
}

// analyzeImage is one unit of work: load and normalize the staged image,
// then ask the captioner for a name.
func (a *Analyzer) analyzeImage(ctx context.Context, record *models.ImageRecord) (string, error) {
	imageData, err := normalizeImage(record.FilePath)
	if err != nil {
		return "", err
	}

	reply, err := a.captioner.Caption(ctx, captioner.Request{
		Model:       a.model,
		Temperature: a.temperature,
		Prompt:      Prompt,
		ImageData:   imageData,
	})
	if err != nil {
		return "", fmt.Errorf("captioning failed: %w", err)
	}

	name := SanitizeName(reply)
	if name == "" {
		return "", fmt.Errorf("captioner returned no usable name for %s", record.OriginalName)
	}
	return name, nil
}

// normalizeImage decodes the staged file and re-encodes it as RGB JPEG,
// the representation every captioning backend accepts.
func normalizeImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image file not found: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// SanitizeName normalizes a model reply into the lowercase underscore
// shape the prompt asks for. Models occasionally wrap replies in quotes
// or code fences; those are stripped rather than failed.
func SanitizeName(reply string) string {
	name := strings.TrimSpace(reply)
	name = strings.TrimPrefix(name, "```")
	name = strings.TrimSuffix(name, "```")
	name = strings.TrimSpace(name)
	if idx := strings.IndexByte(name, '\n'); idx != -1 {
		name = name[:idx]
	}
	name = strings.Trim(name, "\"'` ")
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}
