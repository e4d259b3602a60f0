// Package jsonl reads and writes the pipeline's line-delimited record
// files: scored signals in, validated opportunities out.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/buildsignals/buildsignals/app/signal"
)

// Oversized lines still need to fit a readability-extracted page.
const maxLineBytes = 4 * 1024 * 1024

// ReadSignals loads signal records from a JSONL file. Blank lines are
// skipped; malformed lines are logged and quarantined rather than
// failing the whole file.
func ReadSignals(path string) ([]signal.Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var signals []signal.Signal
	malformed := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var s signal.Signal
		if err := json.Unmarshal(line, &s); err != nil {
			slog.Warn("Skipping malformed record", "file", path, "line", lineNo, "error", err)
			malformed++
			continue
		}
		signals = append(signals, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if malformed > 0 {
		slog.Warn("File contained malformed records", "file", path, "malformed", malformed, "loaded", len(signals))
	}

	return signals, nil
}

// WriteOpportunities writes one record per line, preserving input
// order.
func WriteOpportunities(path string, opportunities []signal.ValidatedOpportunity) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, o := range opportunities {
		if err := encoder.Encode(o); err != nil {
			return fmt.Errorf("failed to encode opportunity %s: %w", o.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return nil
}

// WriteDrafts writes one tweet draft per line, preserving input order.
func WriteDrafts(path string, drafts []signal.ContentDraft) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, d := range drafts {
		if err := encoder.Encode(d); err != nil {
			return fmt.Errorf("failed to encode draft for %s: %w", d.SignalID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return nil
}

// WriteSignals mirrors WriteOpportunities for signal exports.
func WriteSignals(path string, signals []signal.Signal) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, s := range signals {
		if err := encoder.Encode(s); err != nil {
			return fmt.Errorf("failed to encode signal %s: %w", s.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return nil
}
