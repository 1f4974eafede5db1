// Package cmd provides CLI commands for the ietf2vcon tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ietf2vcon/ietf2vcon/client"
	"github.com/ietf2vcon/ietf2vcon/config"
	"github.com/ietf2vcon/ietf2vcon/converter"
	"github.com/ietf2vcon/ietf2vcon/credentials"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcription"
)

// Debug is set by the root command's --debug flag.
var Debug bool

// loadConfig loads the configuration with the --debug flag applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if Debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// newLogger builds the CLI logger from config.
func newLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}
	return logging.NewLogger(logCfg)
}

// newDatatracker builds the Datatracker client, honoring a mirror URL.
func newDatatracker(cfg *config.Config, logger logging.Logger) *client.Datatracker {
	if cfg.DatatrackerURL != "" {
		return client.NewDatatrackerWithURL(cfg.DatatrackerURL, logger)
	}
	return client.NewDatatracker(logger)
}

// newZulip builds the Zulip client when both the account email and an API
// key are available. Chat is optional; missing credentials just skip it.
func newZulip(cfg *config.Config, logger logging.Logger) *client.Zulip {
	if cfg.Zulip.Email == "" {
		return nil
	}
	key, err := credentials.NewStore().ZulipAPIKey()
	if err != nil {
		logger.Debug("no zulip api key, chat disabled", logging.Err(err))
		return nil
	}
	return client.NewZulip(cfg.Zulip.Email, key, logger)
}

// newTranscriber builds the chunked Whisper transcription pipeline.
func newTranscriber(cfg *config.Config, workDir string, logger logging.Logger) (*transcription.Pipeline, *client.Whisper) {
	whisper := client.NewWhisper(cfg.Whisper.URL, cfg.Whisper.Timeout, logger)
	pipeline := transcription.NewPipeline(whisper, cfg.Whisper.Model, logger)
	pipeline.ChunkDir = filepath.Join(workDir, "chunks")
	return pipeline, whisper
}

// newConverter wires all collaborators into a Converter.
func newConverter(cfg *config.Config, opts converter.Options, logger logging.Logger) *converter.Converter {
	c := converter.New(newDatatracker(cfg, logger), client.NewYouTube(logger), opts, logger)
	c.Materials = client.NewMaterials(logger)
	if zulip := newZulip(cfg, logger); zulip != nil {
		c.Chat = zulip
	}
	if !opts.SkipTranscript {
		pipeline, _ := newTranscriber(cfg, opts.WorkDir, logger)
		c.Transcriber = pipeline
	}
	return c
}

// parseMeetingNumber parses a meeting number argument.
func parseMeetingNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid meeting number: %q", arg)
	}
	return n, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
