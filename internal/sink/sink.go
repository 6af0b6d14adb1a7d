// Package sink defines where inspection rows end up: a remote spreadsheet
// written batch by batch, or a local file written once at the end of a run.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/index-inspector/internal/inspection"
)

// Kind names a sink variant.
type Kind string

const (
	// KindRemote is the spreadsheet sink.
	KindRemote Kind = "remote"
	// KindLocal is the local file sink.
	KindLocal Kind = "local"
)

var (
	// ErrPermissionDenied wraps remote failures caused by missing IAM or sharing rights.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrLocalFinalize wraps failures writing the local artifact. There is no
	// further fallback, so it ends the run.
	ErrLocalFinalize = errors.New("write local artifact")
)

// Sink receives completed batches and persists them.
type Sink interface {
	Kind() Kind
	// Append hands over one batch of rows in inspection order.
	Append(ctx context.Context, rows []inspection.Row) error
	// Finalize completes the artifact and returns its location.
	Finalize(ctx context.Context) (string, error)
}

// ArtifactName returns "<slug>-<dd><mon>-<yyyy>" in lower case, e.g.
// "wordsolverx-28jan-2026". It is used for both the sheet title and the file
// name, so a run produces one artifact per calendar day.
func ArtifactName(slug string, t time.Time) string {
	return strings.ToLower(fmt.Sprintf("%s-%s", slug, t.Format("02Jan-2006")))
}
