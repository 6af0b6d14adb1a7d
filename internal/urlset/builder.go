// Package urlset builds the ordered list of URLs inspected by a run: the
// static list read from disk followed by the date-parameterized answer pages.
package urlset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config captures everything the builder needs besides the clock.
type Config struct {
	BaseURL    string
	Games      []string
	Days       int
	StaticFile string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Builder produces the run's URL set. It performs no validation and no
// deduplication; the same inputs on the same date yield the same sequence.
type Builder struct {
	cfg    Config
	clock  Clock
	logger *zap.Logger
}

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg Config, clock Clock, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, clock: clock, logger: logger}
}

// Build returns static URLs followed by dynamic URLs. A missing static file
// contributes nothing; any other read failure is returned.
func (b *Builder) Build() ([]string, error) {
	static, err := b.readStatic()
	if err != nil {
		return nil, err
	}
	dynamic := DynamicURLs(b.cfg.BaseURL, b.cfg.Games, b.cfg.Days, b.clock.Now())

	urls := make([]string, 0, len(static)+len(dynamic))
	urls = append(urls, static...)
	urls = append(urls, dynamic...)
	b.logger.Info("URL set built",
		zap.Int("static", len(static)),
		zap.Int("dynamic", len(dynamic)),
		zap.Int("total", len(urls)),
	)
	return urls, nil
}

func (b *Builder) readStatic() ([]string, error) {
	if b.cfg.StaticFile == "" {
		return nil, nil
	}
	f, err := os.Open(b.cfg.StaticFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("Static URL file not found; continuing with dynamic URLs only",
				zap.String("path", b.cfg.StaticFile))
			return nil, nil
		}
		return nil, fmt.Errorf("open static urls %s: %w", b.cfg.StaticFile, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			b.logger.Warn("Failed to close static URL file", zap.Error(cerr))
		}
	}()
	urls, err := ReadStatic(f)
	if err != nil {
		return nil, fmt.Errorf("read static urls %s: %w", b.cfg.StaticFile, err)
	}
	return urls, nil
}

// ReadStatic returns one URL per non-blank line, trimmed, in file order.
func ReadStatic(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return urls, nil
}

// DynamicURLs emits <base><game>-answer-for-<month>-<dd>-<yyyy> for each of
// the trailing days (today first) and, within a day, each game in order.
func DynamicURLs(baseURL string, games []string, days int, now time.Time) []string {
	if days <= 0 || len(games) == 0 {
		return nil
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	urls := make([]string, 0, days*len(games))
	for i := 0; i < days; i++ {
		date := strings.ToLower(now.AddDate(0, 0, -i).Format("January-02-2006"))
		for _, game := range games {
			urls = append(urls, baseURL+game+"-answer-for-"+date)
		}
	}
	return urls
}
