// Package associate implements the interactive tag-to-file binding flow.
package associate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tagbox/internal/domain/association"
	"github.com/osa030/tagbox/internal/infra/library"
	"github.com/osa030/tagbox/internal/infra/store"
)

// Reader is the tag reader collaborator, as in the player.
type Reader interface {
	ReadPassiveTarget(timeout time.Duration) ([]byte, error)
}

// Config holds associator configuration.
type Config struct {
	LibraryDir    string
	TablePath     string
	ReadTimeout   time.Duration // Per-sample read timeout
	IdlePoll      time.Duration // Delay between samples while waiting for a tag
	RejectBackoff time.Duration // Delay after rejecting an already-used tag
}

// Associator walks the unassociated part of the media library and binds
// each file to a scanned tag, saving the table after every binding.
type Associator struct {
	reader Reader
	table  *association.Table
	cfg    Config
	out    io.Writer
}

// New creates an associator operating on the given table.
func New(reader Reader, table *association.Table, cfg Config, out io.Writer) *Associator {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.IdlePoll <= 0 {
		cfg.IdlePoll = 100 * time.Millisecond
	}
	if cfg.RejectBackoff <= 0 {
		cfg.RejectBackoff = time.Second
	}
	return &Associator{reader: reader, table: table, cfg: cfg, out: out}
}

// Unassociated scans the library and returns the audio files that have no
// binding yet, in scan order.
func (a *Associator) Unassociated() ([]string, int, error) {
	files, err := library.Scan(a.cfg.LibraryDir)
	if err != nil {
		return nil, 0, err
	}

	var unbound []string
	for _, f := range files {
		if !a.table.ContainsPath(f) {
			unbound = append(unbound, f)
		}
	}
	return unbound, len(files), nil
}

// Bind appends a new tag-to-file binding and saves the table. A tag that
// is already bound is rejected and the table is left unchanged.
func (a *Associator) Bind(tagID, path string) error {
	if err := a.table.Append(association.Entry{
		TagID: tagID,
		Path:  path,
		Kind:  association.KindAudioFile,
	}); err != nil {
		return err
	}

	if err := store.Save(a.cfg.TablePath, a.table); err != nil {
		return errors.Wrap(err, "failed to save association table")
	}
	return nil
}

// Run walks the unassociated files and binds each to a scanned tag.
// Cancelling the context saves the table and returns.
func (a *Associator) Run(ctx context.Context) error {
	unbound, total, err := a.Unassociated()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nFound %d audio files in total.\n", total)
	fmt.Fprintf(a.out, "%d already associated.\n", total-len(unbound))

	if len(unbound) == 0 {
		fmt.Fprintln(a.out, "\nAll files are already associated!")
		return nil
	}

	fmt.Fprintf(a.out, "\nFound %d unassociated files:\n", len(unbound))
	for _, f := range unbound {
		fmt.Fprintf(a.out, "- %s\n", filepath.Base(f))
	}

	defer func() {
		fmt.Fprintln(a.out, "\nSaving associations...")
		if err := store.Save(a.cfg.TablePath, a.table); err != nil {
			zlog.Error().Err(err).Msg("associate: final save failed")
		}
		fmt.Fprintln(a.out, "Done!")
	}()

	for _, path := range unbound {
		fmt.Fprintf(a.out, "\n%s\n", divider)
		fmt.Fprintf(a.out, "File waiting for association: %s\n", filepath.Base(path))
		fmt.Fprintf(a.out, "Full path: %s\n", path)
		fmt.Fprintln(a.out, "Please scan a tag... (Ctrl+C to stop)")

		if err := a.bindNext(ctx, path); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(a.out, "\nAssociation interrupted.")
				return nil
			}
			return err
		}
	}

	return nil
}

const divider = "=================================================="

// bindNext polls the reader until a usable tag is scanned for the file.
func (a *Associator) bindNext(ctx context.Context, path string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		uid, err := a.reader.ReadPassiveTarget(a.cfg.ReadTimeout)
		if err != nil {
			zlog.Error().Err(err).Msg("associate: tag read failed")
			if !sleep(ctx, a.cfg.RejectBackoff) {
				return ctx.Err()
			}
			continue
		}

		if len(uid) == 0 {
			if !sleep(ctx, a.cfg.IdlePoll) {
				return ctx.Err()
			}
			continue
		}

		tagID := association.FormatTagID(uid)
		if err := a.Bind(tagID, path); err != nil {
			if errors.Is(err, association.ErrDuplicateTag) {
				fmt.Fprintf(a.out, "\nERROR: tag %s is already associated with another file!\n", tagID)
				fmt.Fprintln(a.out, "Please use a different tag...")
				if !sleep(ctx, a.cfg.RejectBackoff) {
					return ctx.Err()
				}
				continue
			}
			return err
		}

		fmt.Fprintf(a.out, "Association successful! Tag: %s\n", tagID)
		return nil
	}
}

// sleep waits for d or context cancellation, reporting whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
