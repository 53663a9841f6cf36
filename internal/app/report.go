package app

import (
	"fmt"
	"os"
	"strings"

	"biosync/internal/buildinfo"
	"biosync/internal/domain"
)

// writeFailureReport persists a human-readable summary of the failure bucket,
// stamped with the build commit so CI runs can be traced back.
func writeFailureReport(path string, report *domain.RunReport) error {
	var b strings.Builder
	b.WriteString("The following tools failed to upload, update, or delete:\n\n")
	for _, failure := range report.Failed {
		fmt.Fprintf(&b, "- **%s**: %s\n", failure.ID, failure.Detail)
	}
	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "- Git commit: `%s`\n", buildinfo.CommitSHA())
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return domain.E(domain.CodeInternal, "app.writeFailureReport", path, err)
	}
	return nil
}
