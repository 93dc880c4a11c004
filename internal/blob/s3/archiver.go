package s3blob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/updownhq/terminal/internal/domain"
)

// Archiver snapshots an ended market window to blob storage: the chart
// series that was painted during the window plus the last cached book for
// each outcome. The snapshot is written once, when the window rolls over.
type Archiver struct {
	writer domain.BlobWriter
	books  domain.BookCache
	logger *slog.Logger
}

// NewArchiver creates an Archiver. books may be nil, in which case only the
// series is archived.
func NewArchiver(writer domain.BlobWriter, books domain.BookCache, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		books:  books,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

type windowArchive struct {
	Market domain.Market       `json:"market"`
	Series []domain.ChartPoint `json:"series"`
	Books  []domain.OrderBook  `json:"books,omitempty"`
}

// ArchiveWindow uploads the snapshot for an ended market. Missing books are
// skipped rather than failing the archive.
func (a *Archiver) ArchiveWindow(ctx context.Context, m domain.Market, series []domain.ChartPoint) error {
	doc := windowArchive{
		Market: m,
		Series: series,
	}

	if a.books != nil {
		for _, token := range []string{m.UpToken, m.DownToken} {
			book, err := a.books.GetBook(ctx, token)
			if err != nil {
				a.logger.DebugContext(ctx, "final book unavailable",
					slog.String("market", m.ID),
					slog.String("token", token),
				)
				continue
			}
			doc.Books = append(doc.Books, book)
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("s3blob: marshal window archive: %w", err)
	}

	path := archivePath(m)
	if err := a.writer.Put(ctx, path, data, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive window %s: %w", m.ID, err)
	}

	a.logger.InfoContext(ctx, "market window archived",
		slog.String("market", m.ID),
		slog.String("path", path),
		slog.Int("points", len(series)),
	)
	return nil
}

func archivePath(m domain.Market) string {
	pair := strings.ToLower(strings.ReplaceAll(m.Pair, "/", "-"))
	return fmt.Sprintf("markets/%s/%s/%s-%d.json",
		pair, strings.ToLower(m.Timeframe), m.ID, m.StartTime.Unix())
}
