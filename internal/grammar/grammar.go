// Package grammar polishes transcript paragraphs before the final
// rendering. Whisper output is usually punctuated but uneven on casing and
// agreement; a LanguageTool pass cleans up what the decoder got wrong.
package grammar

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"gavel/internal/config"
	"gavel/internal/logging"
	"gavel/internal/services/langtool"
)

// Corrector runs paragraphs through LanguageTool. A correction failure
// degrades to the uncorrected text rather than failing the render.
type Corrector struct {
	client *langtool.Client
	logger *slog.Logger
}

// New builds a Corrector, or returns nil when grammar correction is
// disabled in configuration.
func New(cfg *config.Config, logger *slog.Logger) *Corrector {
	if !cfg.Grammar.Enabled {
		return nil
	}
	return &Corrector{
		client: langtool.New(cfg.Grammar.URL, "en-US",
			time.Duration(cfg.Grammar.TimeoutSeconds)*time.Second),
		logger: logging.NewComponentLogger(logger, "grammar"),
	}
}

// Correct polishes one paragraph.
func (c *Corrector) Correct(ctx context.Context, text string) (string, error) {
	corrected, err := c.client.Correct(ctx, text)
	if err != nil {
		c.logger.Warn("grammar correction failed, keeping original text",
			logging.Error(err))
		return capitalizeSentences(text), nil
	}
	return capitalizeSentences(corrected), nil
}

// capitalizeSentences uppercases the first letter after sentence-ending
// punctuation. LanguageTool misses this when whisper drops a capital after
// a mid-paragraph join.
func capitalizeSentences(text string) string {
	runes := []rune(text)
	capitalizeNext := true
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
		case strings.ContainsRune(".!?", r):
			capitalizeNext = true
		case capitalizeNext && unicode.IsLetter(r):
			runes[i] = unicode.ToUpper(r)
			capitalizeNext = false
		default:
			capitalizeNext = false
		}
	}
	return string(runes)
}
