// Package evidence analyzes incident attachments and aggregates their
// structured metadata for the extraction pipeline. Each attachment is routed
// to a per-type analyzer producing a confidence-scored record; analyzer
// failures degrade the record instead of aborting the batch.
package evidence

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Attachment carries one uploaded file through analysis.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FrameText holds OCR output for one sampled video frame.
type FrameText struct {
	Frame int    `json:"frame"`
	Text  string `json:"ocr_text"`
}

// Record is the structured output of one attachment analyzer.
// A failed analysis carries the error message and confidence 0.
type Record struct {
	Type                string      `json:"type"`
	Filename            string      `json:"filename"`
	Width               int         `json:"width,omitempty"`
	Height              int         `json:"height,omitempty"`
	PageCount           int         `json:"page_count,omitempty"`
	FrameCount          int         `json:"frame_count,omitempty"`
	OCRText             string      `json:"ocr_text,omitempty"`
	ExtractedText       string      `json:"extracted_text,omitempty"`
	DocumentsDetected   []string    `json:"documents_detected,omitempty"`
	HasDamageIndicators bool        `json:"has_damage_indicators,omitempty"`
	KeyFrames           []FrameText `json:"key_frames,omitempty"`
	Confidence          float64     `json:"confidence"`
	Error               string      `json:"error,omitempty"`
}

// Text returns the analyzer's extracted text, whichever field carries it.
func (r Record) Text() string {
	if r.OCRText != "" {
		return r.OCRText
	}
	return r.ExtractedText
}

// Aggregate unifies the records of all analyzed attachments.
type Aggregate struct {
	DocumentsDetected []string `json:"documents_detected"`
	ExtractedText     string   `json:"extracted_text"`
	AttachmentCount   int      `json:"attachment_count"`
	Records           []Record `json:"records"`
	Confidence        float64  `json:"confidence"`
}

// Analyzer produces a Record for one attachment type. Available reports
// whether the backing capability (OCR engine, decoder) is usable; analyzers
// degrade gracefully when it is not, they never block the pipeline.
type Analyzer interface {
	Type() string
	Available() bool
	Analyze(ctx context.Context, att Attachment) Record
}

// Processor routes attachments to analyzers and aggregates their records.
type Processor struct {
	image  Analyzer
	pdf    Analyzer
	video  Analyzer
	logger *slog.Logger
}

// NewProcessor creates a Processor with the standard analyzer set backed by
// the given OCR engine.
func NewProcessor(ocr OCREngine, logger *slog.Logger) *Processor {
	logger = logger.With("system", "evidence")
	return &Processor{
		image:  newImageAnalyzer(ocr),
		pdf:    &pdfAnalyzer{},
		video:  newVideoAnalyzer(ocr),
		logger: logger,
	}
}

// Process analyzes all attachments with bounded concurrency and aggregates
// the results. Unrecognized content types are skipped; per-attachment
// failures are captured in their records and never abort the batch.
func (p *Processor) Process(ctx context.Context, attachments []Attachment) *Aggregate {
	slots := make([]*Record, len(attachments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(runtime.NumCPU(), len(attachments)), 1))

	for i, att := range attachments {
		analyzer := p.route(att.ContentType)
		if analyzer == nil {
			p.logger.Warn("unsupported content type", "content_type", att.ContentType, "filename", att.Filename)
			continue
		}

		g.Go(func() error {
			record := analyzer.Analyze(gctx, att)
			if record.Error != "" {
				p.logger.Warn(
					"attachment analysis failed",
					"filename", att.Filename,
					"type", record.Type,
					"error", record.Error,
				)
			}
			slots[i] = &record
			return nil
		})
	}

	g.Wait()

	records := make([]Record, 0, len(attachments))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}

	return aggregate(records)
}

func (p *Processor) route(contentType string) Analyzer {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return p.image
	case contentType == "application/pdf":
		return p.pdf
	case strings.HasPrefix(contentType, "video/"):
		return p.video
	default:
		return nil
	}
}

// aggregate unions detected document sets, concatenates extracted text, and
// reports the maximum per-attachment confidence (0 with no attachments).
func aggregate(records []Record) *Aggregate {
	seen := make(map[string]struct{})
	docs := make([]string, 0)
	texts := make([]string, 0, len(records))
	confidence := 0.0

	for _, r := range records {
		for _, d := range r.DocumentsDetected {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				docs = append(docs, d)
			}
		}
		if t := r.Text(); t != "" {
			texts = append(texts, t)
		}
		if r.Confidence > confidence {
			confidence = r.Confidence
		}
	}

	sort.Strings(docs)

	return &Aggregate{
		DocumentsDetected: docs,
		ExtractedText:     strings.Join(texts, "\n\n"),
		AttachmentCount:   len(records),
		Records:           records,
		Confidence:        confidence,
	}
}

var documentKeywords = []struct {
	label    string
	keywords []string
}{
	{"police_report", []string{"police", "report", "incident"}},
	{"medical_record", []string{"medical", "hospital", "doctor"}},
	{"receipt", []string{"invoice", "receipt", "bill"}},
	{"license", []string{"license", "driving", "permit"}},
	{"insurance_document", []string{"insurance", "policy", "coverage"}},
}

// classifyDocuments detects document types by keyword match against
// extracted text.
func classifyDocuments(text string) []string {
	lower := strings.ToLower(text)

	var detected []string
	for _, dk := range documentKeywords {
		for _, kw := range dk.keywords {
			if strings.Contains(lower, kw) {
				detected = append(detected, dk.label)
				break
			}
		}
	}
	return detected
}
