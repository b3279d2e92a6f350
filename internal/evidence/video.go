package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	videoConfidenceWithText    = 0.6
	videoConfidenceWithoutText = 0.3

	// Every 30th frame is sampled for OCR, up to the frame cap, and each
	// frame's recognized text is truncated to keep prompts bounded.
	frameSampleInterval = 30
	frameSampleCap      = 100
	frameTextLimit      = 500
)

type videoAnalyzer struct {
	ocr     OCREngine
	ffmpeg  string
	ffprobe string
}

func newVideoAnalyzer(ocr OCREngine) *videoAnalyzer {
	a := &videoAnalyzer{ocr: ocr}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		a.ffmpeg = path
	}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		a.ffprobe = path
	}
	return a
}

func (a *videoAnalyzer) Type() string {
	return "video"
}

func (a *videoAnalyzer) Available() bool {
	return a.ffmpeg != "" && a.ffprobe != ""
}

func (a *videoAnalyzer) Analyze(ctx context.Context, att Attachment) Record {
	record := Record{Type: "video", Filename: att.Filename}

	if !a.Available() {
		record.Confidence = videoConfidenceWithoutText
		return record
	}

	dir, err := os.MkdirTemp("", "video-*")
	if err != nil {
		record.Error = err.Error()
		return record
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input"+filepath.Ext(att.Filename))
	if err := os.WriteFile(path, att.Data, 0o600); err != nil {
		record.Error = err.Error()
		return record
	}

	width, height, frameCount, err := a.probe(ctx, path)
	if err != nil {
		record.Error = err.Error()
		return record
	}
	record.Width = width
	record.Height = height
	record.FrameCount = frameCount

	frames, err := a.sampleFrames(ctx, path, dir)
	if err != nil {
		record.Error = err.Error()
		return record
	}

	var texts []string
	for _, frame := range frames {
		if !a.ocr.Available() {
			break
		}

		data, err := os.ReadFile(frame.path)
		if err != nil {
			continue
		}

		text, err := a.ocr.Recognize(ctx, data)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}

		if len(text) > frameTextLimit {
			text = text[:frameTextLimit]
		}

		record.KeyFrames = append(record.KeyFrames, FrameText{Frame: frame.number, Text: text})
		texts = append(texts, text)
	}

	record.OCRText = strings.Join(texts, "\n")
	record.DocumentsDetected = classifyDocuments(record.OCRText)

	if record.OCRText != "" {
		record.Confidence = videoConfidenceWithText
	} else {
		record.Confidence = videoConfidenceWithoutText
	}

	return record
}

type sampledFrame struct {
	path   string
	number int
}

type probeOutput struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		NbFrames string `json:"nb_frames"`
	} `json:"streams"`
}

func (a *videoAnalyzer) probe(ctx context.Context, path string) (width, height, frames int, err error) {
	cmd := exec.CommandContext(
		ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,nb_frames",
		"-of", "json",
		path,
	)

	raw, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return 0, 0, 0, fmt.Errorf("no video stream found")
	}

	stream := out.Streams[0]
	frames, _ = strconv.Atoi(stream.NbFrames)
	return stream.Width, stream.Height, frames, nil
}

// sampleFrames extracts every 30th frame up to the cap into the working
// directory and returns them in frame order.
func (a *videoAnalyzer) sampleFrames(ctx context.Context, path, dir string) ([]sampledFrame, error) {
	maxFrames := frameSampleCap/frameSampleInterval + 1

	cmd := exec.CommandContext(
		ctx, a.ffmpeg,
		"-i", path,
		"-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, frameSampleInterval),
		"-vsync", "0",
		"-frames:v", strconv.Itoa(maxFrames),
		filepath.Join(dir, "frame_%03d.png"),
	)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	frames := make([]sampledFrame, 0, len(matches))
	for i, m := range matches {
		frames = append(frames, sampledFrame{path: m, number: i * frameSampleInterval})
	}
	return frames, nil
}
