package evidence

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestClassifyDocuments(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"police report", "POLICE INCIDENT REPORT #4411", []string{"police_report"}},
		{"medical", "discharged from Mercy Hospital", []string{"medical_record"}},
		{"receipt", "Invoice total due", []string{"receipt"}},
		{"license", "driving permit renewal", []string{"license"}},
		{"insurance", "your POLICY coverage details", []string{"insurance_document"}},
		{"none", "nothing relevant here", nil},
		{"multiple", "police report attached with repair invoice", []string{"police_report", "receipt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyDocuments(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("classifyDocuments(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	records := []Record{
		{Type: "image", OCRText: "police report", DocumentsDetected: []string{"police_report"}, Confidence: 0.7},
		{Type: "pdf", ExtractedText: "invoice", DocumentsDetected: []string{"receipt", "police_report"}, Confidence: 0.8},
		{Type: "video", Confidence: 0.3},
	}

	agg := aggregate(records)

	if agg.AttachmentCount != 3 {
		t.Errorf("expected 3 attachments, got %d", agg.AttachmentCount)
	}
	if agg.Confidence != 0.8 {
		t.Errorf("expected max confidence 0.8, got %f", agg.Confidence)
	}
	want := []string{"police_report", "receipt"}
	if !reflect.DeepEqual(agg.DocumentsDetected, want) {
		t.Errorf("expected union %v, got %v", want, agg.DocumentsDetected)
	}
	if agg.ExtractedText != "police report\n\ninvoice" {
		t.Errorf("unexpected concatenated text: %q", agg.ExtractedText)
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := aggregate(nil)

	if agg.Confidence != 0 {
		t.Errorf("no attachments must report confidence 0, got %f", agg.Confidence)
	}
	if agg.AttachmentCount != 0 {
		t.Errorf("expected 0 attachments, got %d", agg.AttachmentCount)
	}
}

func TestImageAnalyzerWithoutOCR(t *testing.T) {
	a := newImageAnalyzer(NoOCR{})
	data := encodePNG(t, solidImage(12, 8, color.White))

	record := a.Analyze(context.Background(), Attachment{
		Filename:    "photo.png",
		ContentType: "image/png",
		Data:        data,
	})

	if record.Error != "" {
		t.Fatalf("unexpected error: %s", record.Error)
	}
	if record.Width != 12 || record.Height != 8 {
		t.Errorf("unexpected dimensions %dx%d", record.Width, record.Height)
	}
	if record.Confidence != imageConfidenceWithoutText {
		t.Errorf("no OCR text must score %f, got %f", imageConfidenceWithoutText, record.Confidence)
	}
	if record.HasDamageIndicators {
		t.Error("uniform image must not flag damage")
	}
}

func TestImageAnalyzerDamageHeuristic(t *testing.T) {
	a := newImageAnalyzer(NoOCR{})
	data := encodePNG(t, checkerImage(16, 16))

	record := a.Analyze(context.Background(), Attachment{Filename: "crash.png", Data: data})

	if !record.HasDamageIndicators {
		t.Error("high-frequency image must flag damage")
	}
}

func TestImageAnalyzerDecodeFailure(t *testing.T) {
	a := newImageAnalyzer(NoOCR{})

	record := a.Analyze(context.Background(), Attachment{
		Filename: "broken.png",
		Data:     []byte("not an image"),
	})

	if record.Error == "" {
		t.Error("decode failure must record the error")
	}
	if record.Confidence != 0 {
		t.Errorf("failed analysis must score 0, got %f", record.Confidence)
	}
}

func TestProcessorSkipsUnsupportedTypes(t *testing.T) {
	p := NewProcessor(NoOCR{}, discard())

	agg := p.Process(context.Background(), []Attachment{
		{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
	})

	if agg.AttachmentCount != 0 {
		t.Errorf("unsupported type must be skipped, got %d records", agg.AttachmentCount)
	}
}

func TestProcessorFailureDoesNotAbortBatch(t *testing.T) {
	p := NewProcessor(NoOCR{}, discard())

	good := encodePNG(t, solidImage(4, 4, color.White))
	agg := p.Process(context.Background(), []Attachment{
		{Filename: "bad.png", ContentType: "image/png", Data: []byte("garbage")},
		{Filename: "good.png", ContentType: "image/png", Data: good},
	})

	if agg.AttachmentCount != 2 {
		t.Fatalf("expected 2 records, got %d", agg.AttachmentCount)
	}
	if agg.Records[0].Error == "" {
		t.Error("first record must carry its failure")
	}
	if agg.Records[1].Confidence != imageConfidenceWithoutText {
		t.Errorf("second record must still be analyzed, got %f", agg.Records[1].Confidence)
	}
}

func TestEdgeDensityTinyImage(t *testing.T) {
	if d := edgeDensity(solidImage(1, 1, color.White)); d != 0 {
		t.Errorf("single-pixel image must report 0, got %f", d)
	}
}

func TestRecordText(t *testing.T) {
	if (Record{OCRText: "a"}).Text() != "a" {
		t.Error("OCR text should win")
	}
	if (Record{ExtractedText: "b"}).Text() != "b" {
		t.Error("extracted text should be the fallback")
	}
}

func TestPDFAnalyzerRejectsMalformedDocument(t *testing.T) {
	a := &pdfAnalyzer{}

	record := a.Analyze(context.Background(), Attachment{
		Filename:    "claim.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.7 truncated garbage"),
	})

	if record.Error == "" {
		t.Error("malformed pdf must report an error")
	}
	if record.Confidence != 0 {
		t.Errorf("failed analysis must carry zero confidence, got %f", record.Confidence)
	}
	if record.ExtractedText != "" {
		t.Errorf("no text expected, got %q", record.ExtractedText)
	}
}

func TestContentStreamText(t *testing.T) {
	content := []byte(`BT /F1 12 Tf (Police Report) Tj [(Case ) -250 (4411)] TJ ET`)

	got := contentStreamText(content)

	if got != "Police Report Case 4411" {
		t.Errorf("unexpected extraction: %q", got)
	}
}
