package index

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/docmeta"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/tasks"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, ext *docmeta.Extractor, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, ext, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile derives document metadata from raw content and upserts it.
func indexFile(db *DB, ext *docmeta.Extractor, path string, data []byte) error {
	content := string(data)
	row := DocRow{
		Path:      path,
		Title:     docmeta.Title(content, path),
		Date:      ext.ExtractDate(content),
		Day:       ext.ExtractDayNumber(content, path),
		Tags:      tasks.ExtractTags(content),
		Checksum:  checksum(data),
		UpdatedAt: time.Now(),
	}
	return db.UpsertDocument(row, content)
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
