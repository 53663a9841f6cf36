package imports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"biosync/internal/domain"
	"biosync/internal/infra/content"
)

const (
	galaxyWrapperIDColumn = "Galaxy wrapper id"
	galaxyBiotoolsColumn  = "bio.tool id"
)

type Galaxy struct {
	logger   *zap.Logger
	client   *http.Client
	endpoint string
}

// GalaxyStats summarizes one galaxy codex import.
type GalaxyStats struct {
	// ToolsWritten counts files written under imports/galaxy.
	ToolsWritten int
	// Linked counts copies placed into data/<id>/ for tools that map to an
	// existing bio.tools entry.
	Linked int
}

func NewGalaxy(endpoint string, logger *zap.Logger) *Galaxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if endpoint == "" {
		endpoint = domain.DefaultGalaxyMetadataURL
	}
	return &Galaxy{
		logger:   logger.Named("galaxy"),
		client:   &http.Client{Timeout: fetchTimeout},
		endpoint: endpoint,
	}
}

// Run cleans stale *.galaxy.json files under imports/galaxy and the data tree,
// fetches the galaxy codex TSV, and writes one <id>.galaxy.json per wrapper.
// Rows carrying a bio.tool id whose directory exists in the content tree get a
// copy at <dataDir>/<id>/<id>.galaxy.json.
func (g *Galaxy) Run(ctx context.Context, contentRoot, dataDir string) (GalaxyStats, error) {
	const op = "imports.Galaxy"
	var stats GalaxyStats

	importDir := filepath.Join(contentRoot, "imports", "galaxy")
	if err := cleanImportDir(importDir, "*.galaxy.json"); err != nil {
		return stats, domain.E(domain.CodeInternal, op, "", err)
	}
	if err := cleanDataTree(dataDir, "*.galaxy.json"); err != nil {
		return stats, domain.E(domain.CodeInternal, op, "", err)
	}

	rows, err := g.fetch(ctx)
	if err != nil {
		return stats, domain.Wrap(domain.CodeUnavailable, op, err)
	}

	for _, row := range rows {
		wrapperID := strings.ToLower(strings.TrimSpace(row[galaxyWrapperIDColumn]))
		if wrapperID == "" {
			g.logger.Warn("galaxy row without wrapper id")
			continue
		}

		data, err := json.MarshalIndent(cleanGalaxyRow(row), "", "    ")
		if err != nil {
			return stats, domain.E(domain.CodeInternal, op, fmt.Sprintf("encode %s", wrapperID), err)
		}
		target := filepath.Join(importDir, wrapperID+".galaxy.json")
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return stats, domain.E(domain.CodeInternal, op, fmt.Sprintf("write %s", target), err)
		}
		stats.ToolsWritten++

		toolID := strings.ToLower(strings.TrimSpace(row[galaxyBiotoolsColumn]))
		if toolID == "" || !content.HasToolDir(dataDir, toolID) {
			continue
		}
		linked := filepath.Join(dataDir, toolID, toolID+".galaxy.json")
		if err := os.WriteFile(linked, data, 0o644); err != nil {
			return stats, domain.E(domain.CodeInternal, op, fmt.Sprintf("write %s", linked), err)
		}
		stats.Linked++
	}

	g.logger.Info("galaxy tools imported",
		zap.String("endpoint", g.endpoint),
		zap.Int("tools", stats.ToolsWritten),
		zap.Int("linked", stats.Linked),
	)
	return stats, nil
}

// fetch downloads the codex TSV and returns one column->value map per row.
func (g *Galaxy) fetch(ctx context.Context) ([]map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", g.endpoint, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse galaxy metadata: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("galaxy metadata is empty")
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cleanGalaxyRow drops empty values and rewrites column names to
// underscore-separated keys.
func cleanGalaxyRow(row map[string]string) map[string]string {
	cleaned := make(map[string]string, len(row))
	for column, value := range row {
		if value == "" {
			continue
		}
		cleaned[strings.ReplaceAll(column, " ", "_")] = value
	}
	return cleaned
}

// cleanDataTree removes files matching pattern one level under each tool dir.
func cleanDataTree(dataDir, pattern string) error {
	stale, err := filepath.Glob(filepath.Join(dataDir, "*", pattern))
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
