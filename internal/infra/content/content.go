// Package content reads the local tool content tree (one directory per tool
// under content/data, each holding a <id>.biotools.json description plus any
// imported annotation files).
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"biosync/internal/domain"
)

// LoadRecord reads and decodes one local tool description file. The file is
// fully read and closed before the caller moves on; nothing is held open
// across records.
func LoadRecord(path string) (domain.ToolRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "content.LoadRecord", fmt.Sprintf("read %s", path), err)
	}
	record, err := domain.DecodeToolRecord(data)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "content.LoadRecord", fmt.Sprintf("decode %s", path), err)
	}
	return record, nil
}

// ToolFiles lists every tool description file under the data directory,
// sorted for deterministic processing order.
func ToolFiles(dataDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "*", "*.biotools.json"))
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "content.ToolFiles", dataDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// HasToolDir reports whether the content tree has a directory for the id.
func HasToolDir(dataDir, id string) bool {
	info, err := os.Stat(filepath.Join(dataDir, id))
	return err == nil && info.IsDir()
}
