package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/driftcars/autopilot/internal/storage/memory/export/v1"
	"github.com/driftcars/autopilot/pkg/core"
)

// exportFileName builds "<tag|run>_<start>_<id8>.json[.gz]".
func exportFileName(run *core.Run, compress bool) string {
	prefix := "run"
	if run.Tag != "" {
		prefix = strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(run.Tag)
	}
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s_%s_%s.json", prefix, run.StartTime.Format("20060102_150405"), id)
	if compress {
		name += ".gz"
	}
	return name
}

// exportJSON writes the run data to a (optionally gzipped) JSON file.
// The caller must hold b.mu.
func (b *Backend) exportJSON() error {
	export := v1.Build(&v1.RunData{
		Run:      b.run,
		Ticks:    b.ticks,
		Commands: b.commands,
	})

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, exportFileName(b.run, b.cfg.CompressOutput))

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = core.UploadMetadata{
		RunID:       b.run.ID,
		Mode:        b.run.Mode,
		Tag:         b.run.Tag,
		RunDuration: export.Duration,
	}
	return nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gzWriter.Close()
}
