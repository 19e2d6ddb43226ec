package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Source      SourceConfig      `yaml:"source"`
	Paths       PathsConfig       `yaml:"paths"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Structurer  StructurerConfig  `yaml:"structurer"`
	Drive       DriveConfig       `yaml:"drive"`
	Limits      LimitsConfig      `yaml:"limits"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SourceConfig struct {
	BaseURL      string `yaml:"base_url"`
	Token        string `yaml:"token"`
	PollInterval int    `yaml:"poll_interval_seconds"`
	PageSize     int    `yaml:"page_size"`
}

type PathsConfig struct {
	Watch       string `yaml:"watch"`
	Audio       string `yaml:"audio"`
	Transcripts string `yaml:"transcripts"`
	Outlines    string `yaml:"outlines"`
	Documents   string `yaml:"documents"`
	Archive     string `yaml:"archive"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type StructurerConfig struct {
	Model          string   `yaml:"model"`
	APIKeys        []string `yaml:"api_keys"`
	PromptTemplate string   `yaml:"prompt_template"`
}

type DriveConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	RefreshToken   string `yaml:"refresh_token"`
	RootFolderName string `yaml:"root_folder_name"`
}

type LimitsConfig struct {
	MaxAudioBytes       int64 `yaml:"max_audio_bytes"`
	MaxTranscriptChars  int   `yaml:"max_transcript_chars"`
	MaxStageAttempts    int   `yaml:"max_stage_attempts"`
	StageTimeoutSeconds int   `yaml:"stage_timeout_seconds"`
	MaxHistoryEntries   int   `yaml:"max_history_entries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}
	if c.Paths.Audio == "" {
		return fmt.Errorf("paths.audio is required")
	}
	if c.Paths.Documents == "" {
		return fmt.Errorf("paths.documents is required")
	}
	if len(c.Structurer.APIKeys) == 0 {
		return fmt.Errorf("structurer.api_keys is required")
	}

	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/scribeflow.db"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://api.plaud.ai"
	}
	if c.Source.PollInterval == 0 {
		c.Source.PollInterval = 60
	}
	if c.Source.PageSize == 0 {
		c.Source.PageSize = 100
	}
	if c.Paths.Watch == "" {
		c.Paths.Watch = "data/watch"
	}
	if c.Paths.Transcripts == "" {
		c.Paths.Transcripts = "data/transcripts"
	}
	if c.Paths.Outlines == "" {
		c.Paths.Outlines = "data/outlines"
	}
	if c.Paths.Archive == "" {
		c.Paths.Archive = "data/archive"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Structurer.Model == "" {
		c.Structurer.Model = "gemini-2.5-flash"
	}
	if c.Structurer.PromptTemplate == "" {
		c.Structurer.PromptTemplate = DefaultPromptTemplate
	}
	if c.Drive.RootFolderName == "" {
		c.Drive.RootFolderName = "ScribeFlow"
	}
	if c.Limits.MaxAudioBytes == 0 {
		c.Limits.MaxAudioBytes = 500 * 1024 * 1024
	}
	if c.Limits.MaxTranscriptChars == 0 {
		c.Limits.MaxTranscriptChars = 500_000
	}
	if c.Limits.MaxStageAttempts == 0 {
		c.Limits.MaxStageAttempts = 3
	}
	if c.Limits.StageTimeoutSeconds == 0 {
		c.Limits.StageTimeoutSeconds = 1800
	}
	if c.Limits.MaxHistoryEntries == 0 {
		c.Limits.MaxHistoryEntries = 50
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// DefaultPromptTemplate is the instruction sent to the structuring model.
// %s is replaced with the transcript.
const DefaultPromptTemplate = `You are a document assistant. Turn the audio transcript below into a well-structured document.

Instructions:
- Start with a level-1 heading naming the topic
- Add a Summary section, then key points or action items as a list
- Use markdown tables where the content is tabular
- Use **bold** for important terms and [text](url) for any links mentioned
- End with the full transcript under a Transcript heading

Transcript:
---
%s
---`
