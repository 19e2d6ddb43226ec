package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/nguyentantai21042004/scribeflow/internal/config"
	"github.com/nguyentantai21042004/scribeflow/internal/job"
	"github.com/nguyentantai21042004/scribeflow/internal/logger"
	"github.com/nguyentantai21042004/scribeflow/internal/transcriber"
)

type transcribeStage struct {
	trans  transcriber.Transcriber
	paths  config.PathsConfig
	limits config.LimitsConfig
	logger logger.Logger
}

func (s *transcribeStage) Name() job.Stage { return job.StageTranscribe }

func (s *transcribeStage) Run(ctx context.Context, j *job.Job) error {
	if j.AudioPath == "" {
		return job.Failf(job.KindInternal, "job %s has no audio artifact", j.ID)
	}

	text, err := s.trans.Transcribe(ctx, j.AudioPath)
	if err != nil {
		return job.NewFailure(job.KindTransientIO, err)
	}

	// Oversized transcripts fail outright. Truncating here would feed the
	// structuring stage a corrupted document. The cap is in characters, so
	// multibyte text is not penalized.
	if chars := utf8.RuneCountInString(text); chars > s.limits.MaxTranscriptChars {
		return job.Failf(job.KindResourceLimit,
			"transcript is %d chars, limit %d", chars, s.limits.MaxTranscriptChars)
	}

	if err := os.MkdirAll(s.paths.Transcripts, 0755); err != nil {
		return fmt.Errorf("create transcripts dir: %w", err)
	}
	transcriptPath := filepath.Join(s.paths.Transcripts, baseName(j.Filename)+".txt")
	if err := os.WriteFile(transcriptPath, []byte(text), 0644); err != nil {
		return job.Failf(job.KindTransientIO, "write transcript: %v", err)
	}

	j.TranscriptPath = transcriptPath

	s.logger.Info(ctx, "Transcript saved: %s (%d chars)", transcriptPath, len(text))
	return nil
}
