// Package parsers decodes Codex session logs into normalized events.
package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/janekbaraniewski/codexusage/internal/core"
)

const (
	readerBufferSize = 256 * 1024
	readConcurrency  = 8
)

// ParseFile reads one JSONL file and returns its events in file order.
// Malformed lines are dropped; an unreadable file yields no events.
func ParseFile(path string) []core.Event {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[parsers] open %s: %v", path, err)
		return nil
	}
	defer f.Close()

	modTime := time.Now().UTC()
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime().UTC()
	}

	events, err := parseLines(f, path, modTime)
	if err != nil {
		log.Printf("[parsers] read %s: %v", path, err)
	}
	return events
}

// parseLines resolves timestamps with the precedence explicit string, epoch
// seconds, carry-forward from the previous decoded line, file mtime. A value
// carried forward from the mtime keeps the mtime source.
func parseLines(r io.Reader, path string, modTime time.Time) ([]core.Event, error) {
	br := bufio.NewReaderSize(r, readerBufferSize)

	var (
		events  []core.Event
		carried     time.Time
		carriedFrom core.TimestampSource
		hasPrev     bool
	)
	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return events, readErr
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 && json.Valid(line) {
			rec := decodeRecord(line)
			ts, from := rec.ts, rec.tsFrom
			switch {
			case rec.hasTS:
			case hasPrev && carriedFrom == core.TimestampFileModTime:
				ts, from = carried, core.TimestampFileModTime
			case hasPrev:
				ts, from = carried, core.TimestampCarried
			default:
				ts, from = modTime, core.TimestampFileModTime
			}
			carried, carriedFrom, hasPrev = ts, from, true

			events = append(events, core.Event{
				SourceFile:      path,
				Timestamp:       ts,
				TimestampSource: from,
				Kind:            rec.payload.Kind(),
				Payload:         rec.payload,
				Usage:           rec.usage,
				Raw:             rec.raw,
			})
		}

		if readErr != nil {
			return events, nil
		}
	}
}

// LoadEvents parses files concurrently and concatenates their events in the
// order the files were given.
func LoadEvents(ctx context.Context, files []string) ([]core.Event, error) {
	perFile := make([][]core.Event, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = ParseFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, evs := range perFile {
		total += len(evs)
	}
	events := make([]core.Event, 0, total)
	for _, evs := range perFile {
		events = append(events, evs...)
	}
	return events, nil
}
