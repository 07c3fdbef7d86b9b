// Package export writes the catalogue, indexes and text of a corpus volume
// into a SQLite database.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/ibycus/core/corpus"
	"github.com/FocuswithJustin/ibycus/core/errors"
	"github.com/FocuswithJustin/ibycus/core/idt"
	"github.com/FocuswithJustin/ibycus/core/sqlite"
	"github.com/FocuswithJustin/ibycus/core/txt"
	"github.com/FocuswithJustin/ibycus/internal/logging"
)

// Options select what an export writes.
type Options struct {
	// Texts limits the export to these ids. Empty exports every text.
	Texts []string
	// SkipLines leaves the lines table empty.
	SkipLines bool
	// CacheSize is passed to each index. Zero uses the default.
	CacheSize int
}

// Summary counts what a run wrote.
type Summary struct {
	RunID    string
	Authors  int
	Texts    int
	Works    int
	Sections int
	Lines    int
}

// Run exports vol into the SQLite database at dbPath, creating it if needed.
func Run(ctx context.Context, vol *corpus.Volume, dbPath string, opts Options) (*Summary, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, errors.NewIO("open", dbPath, err)
	}
	defer db.Close()
	return Write(ctx, db, vol, opts)
}

// Write exports vol into an open database.
func Write(ctx context.Context, db *sql.DB, vol *corpus.Volume, opts Options) (*Summary, error) {
	ids, err := selectTexts(vol, opts.Texts)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	sum := &Summary{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, sum.RunID)
	logging.InfoContext(ctx, "export_started", "volume", vol.Name, "texts", len(ids))

	if err := recordRun(ctx, db, vol, sum.RunID); err != nil {
		return nil, err
	}

	if err := writeCatalogue(ctx, db, vol, sum); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := writeText(ctx, db, vol, id, opts, sum); err != nil {
			logging.ErrorContext(ctx, "export_failed", "text", id, "error", err.Error())
			return sum, errors.Wrapf(err, "export %s", id)
		}
	}

	logging.InfoContext(ctx, "export_finished",
		"texts", sum.Texts, "works", sum.Works, "sections", sum.Sections, "lines", sum.Lines)
	return sum, nil
}

func recordRun(ctx context.Context, db *sql.DB, vol *corpus.Volume, runID string) error {
	var catalogue sql.NullString
	cs, err := vol.CatalogueSum()
	if err != nil {
		return errors.Wrapf(err, "hash catalogue")
	}
	if cs != nil {
		catalogue = sql.NullString{String: cs.BLAKE3, Valid: true}
	}
	driver := sqlite.GetInfo()
	_, err = db.ExecContext(ctx,
		`INSERT INTO runs (id, started, volume, driver, driver_package, cgo, catalogue_blake3) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), vol.Name,
		driver.DriverType, driver.Package, driver.IsCGO, catalogue)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func selectTexts(vol *corpus.Volume, want []string) ([]string, error) {
	if len(want) == 0 {
		return vol.Texts(), nil
	}
	ids := make([]string, 0, len(want))
	for _, id := range want {
		if !vol.Has(id) {
			return nil, errors.NewNotFound("text", id)
		}
		ids = append(ids, strings.ToUpper(id))
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func writeCatalogue(ctx context.Context, db *sql.DB, vol *corpus.Volume, sum *Summary) error {
	at := vol.Catalogue()
	if at == nil {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, c := range at.Corpora() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO corpora (run_id, idx, tag, name) VALUES (?, ?, ?, ?)`,
			sum.RunID, i, c.Tag, c.Name); err != nil {
			return err
		}
		for _, a := range c.Authors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO authors (run_id, corpus, author_id, name, raw_name, alphabet, comment) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				sum.RunID, c.Tag, a.ID, a.Name, a.RawName, int(a.Alphabet), a.Comment); err != nil {
				return err
			}
			for _, alias := range a.Aliases {
				if _, err := tx.ExecContext(ctx, `INSERT INTO aliases (run_id, author_id, alias) VALUES (?, ?, ?)`,
					sum.RunID, a.ID, alias); err != nil {
					return err
				}
			}
			sum.Authors++
		}
	}
	return tx.Commit()
}

// writeText writes one text in its own transaction.
func writeText(ctx context.Context, db *sql.DB, vol *corpus.Volume, id string, opts Options, sum *Summary) error {
	var idxOpts []idt.Option
	if opts.CacheSize > 0 {
		idxOpts = append(idxOpts, idt.WithCacheSize(opts.CacheSize))
	}
	f, err := vol.OpenText(id, idxOpts...)
	if err != nil {
		return err
	}
	defer f.Close()

	fp, err := vol.Fingerprint(id)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO texts (run_id, text_id, txt_sha256, txt_blake3, idt_sha256, idt_blake3) VALUES (?, ?, ?, ?, ?, ?)`,
		sum.RunID, id, fp.Text.SHA256, fp.Text.BLAKE3, fp.Index.SHA256, fp.Index.BLAKE3); err != nil {
		return err
	}

	w := &textWriter{ctx: ctx, tx: tx, run: sum.RunID, id: id, f: f}
	if err := w.prepare(); err != nil {
		return err
	}
	defer w.close()

	var counts Summary
	if err := w.walk(!opts.SkipLines, &counts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	sum.Texts++
	sum.Works += counts.Works
	sum.Sections += counts.Sections
	sum.Lines += counts.Lines
	logging.LoggerFromContext(ctx).Debug("text_exported", "text", id,
		"works", counts.Works, "sections", counts.Sections, "lines", counts.Lines)
	return nil
}

type textWriter struct {
	ctx context.Context
	tx  *sql.Tx
	run string
	id  string
	f   *txt.File

	work, section, line *sql.Stmt
}

func (w *textWriter) prepare() error {
	var err error
	if w.work, err = w.tx.PrepareContext(w.ctx,
		`INSERT INTO works (run_id, text_id, author, work, author_name, name, citation, block, levels) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`); err != nil {
		return err
	}
	if w.section, err = w.tx.PrepareContext(w.ctx,
		`INSERT INTO sections (run_id, text_id, author, work, section, block, span, start_id, end_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`); err != nil {
		return err
	}
	w.line, err = w.tx.PrepareContext(w.ctx,
		`INSERT INTO lines (run_id, text_id, author, work, section, seq, citation, text, plain) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	return err
}

func (w *textWriter) close() {
	for _, s := range []*sql.Stmt{w.work, w.section, w.line} {
		if s != nil {
			s.Close()
		}
	}
}

func (w *textWriter) walk(lines bool, counts *Summary) error {
	index := w.f.Index()
	authors, err := index.AuthorCount()
	if err != nil {
		return err
	}
	for a := 0; a < authors; a++ {
		author, err := index.Author(a)
		if err != nil {
			return err
		}
		works, err := index.WorkCount(a)
		if err != nil {
			return err
		}
		for wi := 0; wi < works; wi++ {
			work, err := index.Work(a, wi)
			if err != nil {
				return err
			}
			sections, err := index.Sections(a, wi)
			if err != nil {
				return err
			}
			if _, err := w.work.ExecContext(w.ctx, w.run, w.id, a, wi, author.Name, work.Name,
				work.ID.String(), work.Block, levelNames(work)); err != nil {
				return err
			}
			counts.Works++

			for s, sec := range sections {
				if _, err := w.section.ExecContext(w.ctx, w.run, w.id, a, wi, s, sec.Block, sec.Span(),
					sec.Start.String(), sec.End.String()); err != nil {
					return err
				}
				counts.Sections++
				if !lines {
					continue
				}
				n, err := w.writeLines(a, wi, s)
				if err != nil {
					return err
				}
				counts.Lines += n
			}
		}
	}
	return nil
}

func (w *textWriter) writeLines(a, wi, s int) (int, error) {
	if err := w.f.Top(a, wi, s); err != nil {
		return 0, err
	}
	lines, err := w.f.Lines(0)
	if err != nil {
		return 0, err
	}
	for seq, l := range lines {
		if _, err := w.line.ExecContext(w.ctx, w.run, w.id, a, wi, s, seq,
			l.ID.String(), l.Text, txt.StripCodes(l.Text)); err != nil {
			return 0, err
		}
	}
	return len(lines), nil
}

// levelNames joins a work's level names from coarsest to finest.
func levelNames(work *idt.Work) string {
	names := make([]string, 0, len(work.LevelDescriptions))
	for i := len(work.LevelDescriptions) - 1; i >= 0; i-- {
		if name, ok := work.LevelDescriptions[byte(i)]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ".")
}
