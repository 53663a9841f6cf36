package main

import (
	"encoding/json"
	"fmt"

	"biosync/internal/domain"
	"biosync/internal/infra/imports"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printRunReport(report *domain.RunReport, jsonOutput bool) error {
	if report == nil {
		return nil
	}
	if jsonOutput {
		failed := make([]map[string]string, 0, len(report.Failed))
		for _, failure := range report.Failed {
			failed = append(failed, map[string]string{
				"id":     failure.ID,
				"detail": failure.Detail,
			})
		}
		return writeJSON(map[string]any{
			"runId":     report.RunID,
			"succeeded": report.Succeeded,
			"unchanged": report.Unchanged,
			"failed":    failed,
		})
	}
	fmt.Printf("succeeded=%d failed=%d unchanged=%d\n", len(report.Succeeded), len(report.Failed), len(report.Unchanged))
	for _, id := range report.Succeeded {
		fmt.Printf("ok\t%s\n", id)
	}
	for _, id := range report.Unchanged {
		fmt.Printf("unchanged\t%s\n", id)
	}
	for _, failure := range report.Failed {
		fmt.Printf("failed\t%s\t%s\n", failure.ID, failure.Detail)
	}
	return nil
}

func printImportCount(label string, count int, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{label: count})
	}
	fmt.Printf("%s=%d\n", label, count)
	return nil
}

func printGalaxyStats(stats imports.GalaxyStats, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{
			"toolsWritten": stats.ToolsWritten,
			"linked":       stats.Linked,
		})
	}
	fmt.Printf("tools_written=%d linked=%d\n", stats.ToolsWritten, stats.Linked)
	return nil
}

func printOpenEBenchStats(stats imports.OpenEBenchStats, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{
			"filesAdded":     stats.FilesAdded,
			"objectsAdded":   stats.ObjectsAdded,
			"objectsRemoved": stats.ObjectsRemoved,
			"changeRatio":    stats.ChangeRatio(),
		})
	}
	fmt.Printf("files_added=%d objects_added=%d objects_removed=%d change_ratio=%.4f\n",
		stats.FilesAdded, stats.ObjectsAdded, stats.ObjectsRemoved, stats.ChangeRatio())
	return nil
}
