// Package imports pulls external metadata sources (Bioconductor, OpenEBench)
// into the content tree as per-tool files.
package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"biosync/internal/domain"
)

const fetchTimeout = 120 * time.Second

type Bioconductor struct {
	logger   *zap.Logger
	client   *http.Client
	endpoint string
}

func NewBioconductor(endpoint string, logger *zap.Logger) *Bioconductor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if endpoint == "" {
		endpoint = domain.DefaultBioconductorEndpoint
	}
	return &Bioconductor{
		logger:   logger.Named("bioconductor"),
		client:   &http.Client{Timeout: fetchTimeout},
		endpoint: endpoint,
	}
}

// Run cleans imports/bioconductor under the content root, fetches the package
// index, and writes one <pkg>.bioconductor.json per package. Returns the
// number of packages written.
func (b *Bioconductor) Run(ctx context.Context, contentRoot string) (int, error) {
	const op = "imports.Bioconductor"

	importDir := filepath.Join(contentRoot, "imports", "bioconductor")
	if err := cleanImportDir(importDir, "*.bioconductor.json"); err != nil {
		return 0, domain.E(domain.CodeInternal, op, "", err)
	}

	packages, err := b.fetch(ctx)
	if err != nil {
		return 0, domain.Wrap(domain.CodeUnavailable, op, err)
	}

	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		pack := packages[name]
		if s, ok := pack["Package"].(string); ok && s != "" {
			name = s
		}
		target := filepath.Join(importDir, strings.ToLower(name)+".bioconductor.json")
		data, err := json.MarshalIndent(pack, "", "    ")
		if err != nil {
			return written, domain.E(domain.CodeInternal, op, fmt.Sprintf("encode %s", name), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, domain.E(domain.CodeInternal, op, fmt.Sprintf("write %s", target), err)
		}
		written++
	}
	b.logger.Info("bioconductor packages imported",
		zap.String("endpoint", b.endpoint),
		zap.Int("packages", written),
	)
	return written, nil
}

func (b *Bioconductor) fetch(ctx context.Context) (map[string]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", b.endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var packages map[string]map[string]any
	if err := json.Unmarshal(body, &packages); err != nil {
		return nil, fmt.Errorf("parse package index: %w", err)
	}
	return packages, nil
}

func cleanImportDir(dir, pattern string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stale, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
