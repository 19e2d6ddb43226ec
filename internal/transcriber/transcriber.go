package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	reSrtIndex = regexp.MustCompile(`^\d+$`)
	reSrtTime  = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.]\d{3}\s+-->`)
)

// Transcribe converts the audio to 16kHz mono WAV, runs whisper.cpp on it,
// and flattens the SRT output into "[MM:SS] text" lines.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	wavPath, err := t.extractAudio(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	defer t.cleanupTempFile(ctx, wavPath)

	srtPath, err := t.runWhisper(ctx, wavPath)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	defer t.cleanupTempFile(ctx, srtPath)

	content, err := os.ReadFile(srtPath)
	if err != nil {
		return "", fmt.Errorf("read srt: %w", err)
	}

	return FlattenSRT(string(content)), nil
}

// extractAudio converts the source audio to the 16kHz mono PCM format
// whisper expects.
func (t *implTranscriber) extractAudio(ctx context.Context, audioPath string) (string, error) {
	wavPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + "_temp.wav"

	t.logger.Info(ctx, "Extracting audio: %s", audioPath)

	args := []string{
		"-i", audioPath,
		"-vn",
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // Mono
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		wavPath,
	}

	if _, err := t.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return "", fmt.Errorf("ffmpeg: %w", err)
	}

	return wavPath, nil
}

func (t *implTranscriber) runWhisper(ctx context.Context, wavPath string) (string, error) {
	outputPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))

	t.logger.Info(ctx, "Transcribing with %d threads: %s", t.cfg.Threads, wavPath)

	args := []string{
		"-m", t.cfg.ModelPath,
		"-f", wavPath,
		"-osrt",
		"-l", t.cfg.Language,
		"-t", strconv.Itoa(t.cfg.Threads),
		"--output-file", outputPrefix,
	}
	if t.cfg.Prompt != "" {
		args = append(args, "--prompt", t.cfg.Prompt)
	}

	if _, err := t.executor.Execute(ctx, t.cfg.BinaryPath, args...); err != nil {
		return "", err
	}

	return outputPrefix + ".srt", nil
}

func (t *implTranscriber) cleanupTempFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil {
		t.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", path, err)
	}
}

// FlattenSRT strips SRT sequence numbers, keeps each cue's start time as a
// [MM:SS] prefix, and joins the dialogue lines.
func FlattenSRT(srt string) string {
	var out []string
	stamp := ""

	for _, line := range strings.Split(srt, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || reSrtIndex.MatchString(trimmed) {
			continue
		}
		if m := reSrtTime.FindStringSubmatch(trimmed); m != nil {
			hh, _ := strconv.Atoi(m[1])
			mm, _ := strconv.Atoi(m[2])
			ss, _ := strconv.Atoi(m[3])
			stamp = fmt.Sprintf("[%02d:%02d]", hh*60+mm, ss)
			continue
		}

		if stamp != "" {
			out = append(out, stamp+" "+trimmed)
			stamp = ""
		} else {
			out = append(out, trimmed)
		}
	}

	return strings.Join(out, "\n")
}
