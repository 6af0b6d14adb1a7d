package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-inspector/internal/inspection"
)

// BlobStore writes one named object and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Hasher computes an artifact checksum.
type Hasher interface {
	Sum(data []byte) string
}

// LocalConfig names the artifact and picks its encoding.
type LocalConfig struct {
	// Name is the artifact base name without extension.
	Name    string
	Encoder Encoder
	// Hasher is optional; when set the artifact checksum is logged.
	Hasher Hasher
}

// LocalSink buffers rows in memory and writes them once on Finalize.
type LocalSink struct {
	store    BlobStore
	mirrors  []BlobStore
	name     string
	encoder  Encoder
	hasher   Hasher
	checksum string
	pending  []inspection.Row
	logger   *zap.Logger
}

// NewLocal returns a LocalSink writing to store. Mirrors receive a copy of the
// artifact after the primary write succeeds; their failures are only logged.
func NewLocal(store BlobStore, cfg LocalConfig, logger *zap.Logger, mirrors ...BlobStore) (*LocalSink, error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	if cfg.Name == "" {
		return nil, errors.New("artifact name is required")
	}
	if cfg.Encoder == nil {
		cfg.Encoder = CSVEncoder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSink{
		store:   store,
		mirrors: mirrors,
		name:    cfg.Name,
		encoder: cfg.Encoder,
		hasher:  cfg.Hasher,
		logger:  logger,
	}, nil
}

// Kind implements Sink.
func (s *LocalSink) Kind() Kind { return KindLocal }

// Append buffers rows. It never fails.
func (s *LocalSink) Append(_ context.Context, rows []inspection.Row) error {
	s.pending = append(s.pending, rows...)
	return nil
}

// Pending returns a copy of the buffered rows.
func (s *LocalSink) Pending() []inspection.Row {
	out := make([]inspection.Row, len(s.pending))
	copy(out, s.pending)
	return out
}

// Filename is the object path the artifact is written to.
func (s *LocalSink) Filename() string {
	return s.name + s.encoder.Extension()
}

// Checksum returns the digest of the last finalized artifact, if a Hasher is set.
func (s *LocalSink) Checksum() string {
	return s.checksum
}

// Finalize encodes the header and all buffered rows and writes them in a
// single PutObject call.
func (s *LocalSink) Finalize(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, inspection.Header(), s.pending); err != nil {
		return "", fmt.Errorf("%w: encode: %w", ErrLocalFinalize, err)
	}
	payload := buf.Bytes()
	uri, err := s.store.PutObject(ctx, s.Filename(), s.encoder.ContentType(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLocalFinalize, err)
	}
	fields := []zap.Field{zap.String("uri", uri), zap.Int("rows", len(s.pending))}
	if s.hasher != nil {
		s.checksum = s.hasher.Sum(payload)
		fields = append(fields, zap.String("sha256", s.checksum))
	}
	s.logger.Info("Results saved to local file", fields...)

	for _, mirror := range s.mirrors {
		mirrorURI, err := mirror.PutObject(ctx, s.Filename(), s.encoder.ContentType(), bytes.NewReader(payload))
		if err != nil {
			s.logger.Warn("Failed to mirror local artifact", zap.Error(err))
			continue
		}
		s.logger.Info("Mirrored local artifact", zap.String("uri", mirrorURI))
	}
	return uri, nil
}
