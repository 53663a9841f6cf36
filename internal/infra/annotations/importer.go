// Package annotations materializes the biocontainers annotation dump as
// per-tool YAML files in the content tree.
package annotations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"biosync/internal/domain"
)

const fetchTimeout = 60 * time.Second

type Importer struct {
	logger *zap.Logger
	client *http.Client
}

func NewImporter(logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		logger: logger.Named("annotations"),
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Run fetches the annotation document at url and writes one
// <dir>/<id>/<id>.biocontainers.yaml per entry, creating directories as
// needed and overwriting existing files. It returns the number of files
// written. Any failure aborts the whole import; the operation is re-runnable
// and fully overwrites each target, so a partial run is recovered by running
// again.
func (i *Importer) Run(ctx context.Context, url, dir string) (int, error) {
	const op = "annotations.Run"

	annotations, err := i.fetch(ctx, url)
	if err != nil {
		return 0, domain.Wrap(domain.CodeUnavailable, op, err)
	}

	ids := make([]string, 0, len(annotations))
	for id := range annotations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	written := 0
	for _, id := range ids {
		target := filepath.Join(dir, id, id+".biocontainers.yaml")
		if err := writeYAML(target, annotations[id]); err != nil {
			return written, domain.E(domain.CodeInternal, op, fmt.Sprintf("write %s", target), err)
		}
		written++
	}
	i.logger.Info("annotations imported",
		zap.String("url", url),
		zap.String("dir", dir),
		zap.Int("files", written),
	)
	return written, nil
}

func (i *Importer) fetch(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var annotations map[string]any
	if err := yaml.Unmarshal(body, &annotations); err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return annotations, nil
}

func writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
