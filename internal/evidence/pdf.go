package evidence

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

const (
	pdfConfidenceWithText    = 0.8
	pdfConfidenceWithoutText = 0.3
)

// Text show operators in a PDF content stream: (string) Tj and
// [(a) (b)] TJ with standard literal-string escapes.
var (
	tjOperator = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*Tj`)
	tjArray    = regexp.MustCompile(`\[((?:[^\[\]])*)\]\s*TJ`)
	tjLiteral  = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

	pdfEscapes = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\t`, "\t")
)

type pdfAnalyzer struct{}

func (a *pdfAnalyzer) Type() string {
	return "pdf"
}

func (a *pdfAnalyzer) Available() bool {
	return true
}

func (a *pdfAnalyzer) Analyze(ctx context.Context, att Attachment) Record {
	record := Record{Type: "pdf", Filename: att.Filename}

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(att.Data), nil)
	if err != nil {
		record.Error = err.Error()
		return record
	}
	record.PageCount = pdfCtx.PageCount

	pages := make([]string, 0, pdfCtx.PageCount)
	for page := 1; page <= pdfCtx.PageCount; page++ {
		if ctx.Err() != nil {
			record.Error = ctx.Err().Error()
			return record
		}

		content, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			continue
		}

		raw, err := io.ReadAll(content)
		if err != nil {
			continue
		}

		if text := contentStreamText(raw); text != "" {
			pages = append(pages, text)
		}
	}

	record.ExtractedText = strings.Join(pages, "\n\n")
	record.DocumentsDetected = classifyDocuments(record.ExtractedText)

	if record.ExtractedText != "" {
		record.Confidence = pdfConfidenceWithText
	} else {
		record.Confidence = pdfConfidenceWithoutText
	}

	return record
}

// contentStreamText pulls the literal strings shown by Tj and TJ operators
// out of a raw page content stream.
func contentStreamText(content []byte) string {
	var parts []string

	for _, m := range tjOperator.FindAllSubmatch(content, -1) {
		if s := pdfEscapes.Replace(string(m[1])); strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}

	for _, m := range tjArray.FindAllSubmatch(content, -1) {
		var run []string
		for _, lit := range tjLiteral.FindAllSubmatch(m[1], -1) {
			run = append(run, pdfEscapes.Replace(string(lit[1])))
		}
		if s := strings.Join(run, ""); strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
