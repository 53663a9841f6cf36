package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"biosync/internal/domain"
	"biosync/internal/infra/content"
)

// Monitoring noise that changes on every OpenEBench crawl and must not count
// as a real metrics change.
var volatileMetricPaths = []string{
	"/@timestamp",
	"/project/website/last_check",
	"/project/website/access_time",
	"/project/website/last_month_access",
	"/project/website/half_year_stat",
}

type OpenEBench struct {
	logger   *zap.Logger
	client   *http.Client
	endpoint string
}

// OpenEBenchStats summarizes one metrics import.
type OpenEBenchStats struct {
	FilesAdded     int
	ObjectsAdded   int
	ObjectsRemoved int
	PropsTotal     int
	PropsChanged   int
}

// ChangeRatio is the fraction of incoming properties that differ from the
// previous snapshot.
func (s OpenEBenchStats) ChangeRatio() float64 {
	if s.PropsTotal == 0 {
		return 0
	}
	return float64(s.PropsChanged) / float64(s.PropsTotal)
}

func NewOpenEBench(endpoint string, logger *zap.Logger) *OpenEBench {
	if logger == nil {
		logger = zap.NewNop()
	}
	if endpoint == "" {
		endpoint = domain.DefaultOpenEBenchEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &OpenEBench{
		logger:   logger.Named("openebench"),
		client:   &http.Client{Timeout: fetchTimeout},
		endpoint: endpoint,
	}
}

// Run fetches the monitoring metrics, groups them by tool id, and rewrites
// <dataDir>/<id>/<id>.oeb.metrics.json for every tool present in the content
// tree, accumulating change statistics against the previous snapshots.
func (o *OpenEBench) Run(ctx context.Context, dataDir string) (OpenEBenchStats, error) {
	const op = "imports.OpenEBench"
	var stats OpenEBenchStats

	metrics, err := o.fetch(ctx)
	if err != nil {
		return stats, domain.Wrap(domain.CodeUnavailable, op, err)
	}

	grouped := make(map[string][]map[string]any)
	for _, metric := range metrics {
		id := o.toolID(metric)
		if id == "" || !content.HasToolDir(dataDir, id) {
			continue
		}
		grouped[id] = append(grouped[id], metric)
	}

	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		incoming := grouped[id]
		path := filepath.Join(dataDir, id, id+".oeb.metrics.json")

		previous, ok := loadPreviousMetrics(path)
		if !ok {
			stats.FilesAdded++
			stats.ObjectsAdded += len(incoming)
		} else {
			for _, metric := range incoming {
				stats.PropsTotal += countProps(metric)
				uri, _ := metric["@id"].(string)
				old, seen := previous[uri]
				if !seen {
					stats.ObjectsAdded++
					continue
				}
				stats.PropsChanged += countChanges(old, metric, "")
				delete(previous, uri)
			}
			stats.ObjectsRemoved += len(previous)
		}

		data, err := json.MarshalIndent(incoming, "", "    ")
		if err != nil {
			return stats, domain.E(domain.CodeInternal, op, fmt.Sprintf("encode %s", id), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return stats, domain.E(domain.CodeInternal, op, fmt.Sprintf("write %s", path), err)
		}
	}

	o.logger.Info("openebench metrics imported",
		zap.Int("tools", len(ids)),
		zap.Int("files_added", stats.FilesAdded),
		zap.Int("objects_added", stats.ObjectsAdded),
		zap.Int("objects_removed", stats.ObjectsRemoved),
		zap.Float64("change_ratio", stats.ChangeRatio()),
	)
	return stats, nil
}

func (o *OpenEBench) fetch(ctx context.Context) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", o.endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var metrics []map[string]any
	if err := json.Unmarshal(body, &metrics); err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}
	return metrics, nil
}

// toolID extracts the tool id from a metric's @id URI. The path segment after
// the endpoint may carry a "source:id" qualifier; only the id part matters.
func (o *OpenEBench) toolID(metric map[string]any) string {
	uri, _ := metric["@id"].(string)
	if !strings.HasPrefix(uri, o.endpoint) {
		return ""
	}
	identifier := uri[len(o.endpoint):]
	if idx := strings.IndexByte(identifier, '/'); idx >= 0 {
		identifier = identifier[:idx]
	}
	tokens := strings.Split(identifier, ":")
	if len(tokens) == 1 {
		return tokens[0]
	}
	return tokens[1]
}

func loadPreviousMetrics(path string) (map[string]map[string]any, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var previous []map[string]any
	if err := json.Unmarshal(data, &previous); err != nil {
		// Invalid snapshots are replaced wholesale.
		return map[string]map[string]any{}, true
	}
	indexed := make(map[string]map[string]any, len(previous))
	for _, metric := range previous {
		uri, _ := metric["@id"].(string)
		indexed[uri] = metric
	}
	return indexed, true
}

// countProps counts properties the way the change ratio expects: container
// sizes plus every nested value.
func countProps(value any) int {
	switch v := value.(type) {
	case map[string]any:
		count := len(v)
		for _, item := range v {
			count += countProps(item)
		}
		return count
	case []any:
		count := len(v)
		for _, item := range v {
			count += countProps(item)
		}
		return count
	default:
		return 1
	}
}

// countChanges counts differing leaves between two metric trees, skipping the
// volatile monitoring paths.
func countChanges(old, incoming any, path string) int {
	for _, skip := range volatileMetricPaths {
		if strings.HasPrefix(path, skip) {
			return 0
		}
	}

	oldMap, oldIsMap := old.(map[string]any)
	newMap, newIsMap := incoming.(map[string]any)
	if oldIsMap && newIsMap {
		changes := 0
		for key, newVal := range newMap {
			if oldVal, ok := oldMap[key]; ok {
				changes += countChanges(oldVal, newVal, path+"/"+key)
			} else {
				changes += countProps(newVal)
			}
		}
		for key, oldVal := range oldMap {
			if _, ok := newMap[key]; !ok {
				changes += countProps(oldVal)
			}
		}
		return changes
	}

	oldList, oldIsList := old.([]any)
	newList, newIsList := incoming.([]any)
	if oldIsList && newIsList {
		changes := 0
		shared := len(oldList)
		if len(newList) < shared {
			shared = len(newList)
		}
		for i := 0; i < shared; i++ {
			changes += countChanges(oldList[i], newList[i], path)
		}
		for _, extra := range newList[shared:] {
			changes += countProps(extra)
		}
		for _, extra := range oldList[shared:] {
			changes += countProps(extra)
		}
		return changes
	}

	if reflect.DeepEqual(old, incoming) {
		return 0
	}
	return 1
}
