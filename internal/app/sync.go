package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"biosync/internal/domain"
	"biosync/internal/infra/content"
	"biosync/internal/infra/registry"
	"biosync/internal/infra/telemetry"
)

type SyncOptions struct {
	// Files are the changed or created tool description files.
	Files []string
	// Deleted are paths of removed files whose tools leave the registry.
	Deleted []string
	// ReportPath receives the failure report when non-empty and failures
	// occurred.
	ReportPath string

	Metrics *telemetry.Metrics
	Health  *telemetry.HealthTracker
}

// Sync brings the registry into agreement with the given files, one record at
// a time. Every per-file error lands in the report's failure bucket; the loop
// never aborts on a bad file. The returned error is non-nil only for run-level
// problems (context cancellation, unwritable report file).
func (a *App) Sync(ctx context.Context, client *registry.Client, opts SyncOptions) (*domain.RunReport, error) {
	runID := uuid.NewString()
	logger := a.logger.Named("sync").With(zap.String("run_id", runID))
	report := domain.NewRunReport(runID)
	start := time.Now()

	deleted := 0
	for _, path := range opts.Files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome := a.syncFile(ctx, client, logger, report, path)
		opts.Metrics.ObserveOutcome(outcome)
	}
	for _, path := range opts.Deleted {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome := a.deleteTool(ctx, client, logger, report, path)
		if outcome == domain.OutcomeDeleted {
			deleted++
		}
		opts.Metrics.ObserveOutcome(outcome)
	}

	opts.Metrics.ObserveSyncRun(time.Since(start))
	if opts.Health != nil {
		opts.Health.RecordRun(runID, len(report.Succeeded), len(report.Unchanged), len(report.Failed))
	}

	logger.Info("sync finished",
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("unchanged", len(report.Unchanged)),
		zap.Int("deleted", deleted),
		zap.Strings("succeeded_ids", report.Succeeded),
		zap.Strings("unchanged_ids", report.Unchanged),
		zap.Strings("failed_ids", failedIDs(report)),
	)

	if opts.ReportPath != "" && report.HasFailures() {
		if err := writeFailureReport(opts.ReportPath, report); err != nil {
			return report, err
		}
		logger.Info("failure report written", zap.String("path", opts.ReportPath))
	}
	return report, nil
}

// syncFile reconciles one local file: create when the registry has no record,
// update when the normalized forms differ, skip when they agree.
func (a *App) syncFile(ctx context.Context, client *registry.Client, logger *zap.Logger, report *domain.RunReport, path string) domain.Outcome {
	logger.Debug("processing file", zap.String("path", path))

	record, err := content.LoadRecord(path)
	if err != nil {
		logger.Error("unreadable tool file", zap.String("path", path), zap.Error(err))
		report.Fail(domain.UnknownToolID, err.Error())
		return domain.OutcomeFailure
	}

	local := domain.Normalize(record)
	id := local.ID()
	if id == "" {
		logger.Error("tool file has no identifier", zap.String("path", path))
		report.Fail(domain.UnknownToolID, fmt.Sprintf("%s in %s", domain.ErrMissingIdentifier, path))
		return domain.OutcomeFailure
	}

	remote, err := client.Fetch(ctx, id)
	switch {
	case err == nil:
		diff := domain.Diff(domain.Normalize(remote), local)
		if diff == "" {
			logger.Debug("already registered and unchanged", zap.String("tool", id))
			report.Skip(id)
			return domain.OutcomeUnchanged
		}
		logger.Info("registered but changed, attempting update", zap.String("tool", id))
		logger.Debug("record diff", zap.String("tool", id), zap.String("diff", diff))
		if err := client.ValidateUpdate(ctx, local); err != nil {
			logger.Error("update validation failed", zap.String("tool", id), zap.Error(err))
			report.Fail(id, err.Error())
			return domain.OutcomeFailure
		}
		if err := client.Update(ctx, local); err != nil {
			logger.Error("update failed", zap.String("tool", id), zap.Error(err))
			report.Fail(id, err.Error())
			return domain.OutcomeFailure
		}
		logger.Info("tool updated", zap.String("tool", id))
		report.Success(id)
		return domain.OutcomeSuccess

	case errors.Is(err, domain.ErrToolNotFound):
		logger.Info("not registered, proceeding with upload", zap.String("tool", id))
		if err := client.ValidateCreate(ctx, local); err != nil {
			logger.Error("creation validation failed", zap.String("tool", id), zap.Error(err))
			report.Fail(id, err.Error())
			return domain.OutcomeFailure
		}
		if err := client.Create(ctx, local); err != nil {
			logger.Error("upload failed", zap.String("tool", id), zap.Error(err))
			report.Fail(id, err.Error())
			return domain.OutcomeFailure
		}
		logger.Info("tool added", zap.String("tool", id))
		report.Success(id)
		return domain.OutcomeSuccess

	default:
		logger.Error("error checking tool", zap.String("tool", id), zap.Error(err))
		report.Fail(id, err.Error())
		return domain.OutcomeFailure
	}
}

// deleteTool removes the tool named by the deleted file's basename. A 404 is
// "already gone" and only logged; any other failure joins the report.
func (a *App) deleteTool(ctx context.Context, client *registry.Client, logger *zap.Logger, report *domain.RunReport, path string) domain.Outcome {
	id := domain.ToolIDFromPath(path)
	logger.Info("deleting tool", zap.String("tool", id))

	err := client.Delete(ctx, id)
	switch {
	case err == nil:
		logger.Info("tool deleted", zap.String("tool", id))
		return domain.OutcomeDeleted
	case errors.Is(err, domain.ErrToolNotFound):
		logger.Warn("tool not found on server, maybe already deleted", zap.String("tool", id))
		return domain.OutcomeDeleted
	default:
		logger.Error("delete failed", zap.String("tool", id), zap.Error(err))
		report.Fail(id, err.Error())
		return domain.OutcomeFailure
	}
}

// Validate dry-runs every file against the registry validation endpoints
// without mutating anything: existing tools go through update validation, new
// ones through creation validation.
func (a *App) Validate(ctx context.Context, client *registry.Client, files []string) (*domain.RunReport, error) {
	runID := uuid.NewString()
	logger := a.logger.Named("validate").With(zap.String("run_id", runID))
	report := domain.NewRunReport(runID)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := content.LoadRecord(path)
		if err != nil {
			report.Fail(domain.UnknownToolID, err.Error())
			continue
		}
		local := domain.Normalize(record)
		id := local.ID()
		if id == "" {
			report.Fail(domain.UnknownToolID, fmt.Sprintf("%s in %s", domain.ErrMissingIdentifier, path))
			continue
		}

		_, err = client.Fetch(ctx, id)
		switch {
		case err == nil:
			err = client.ValidateUpdate(ctx, local)
		case errors.Is(err, domain.ErrToolNotFound):
			err = client.ValidateCreate(ctx, local)
		}
		if err != nil {
			logger.Error("validation failed", zap.String("tool", id), zap.Error(err))
			report.Fail(id, err.Error())
			continue
		}
		logger.Info("validation passed", zap.String("tool", id))
		report.Success(id)
	}
	return report, nil
}

func failedIDs(report *domain.RunReport) []string {
	ids := make([]string, 0, len(report.Failed))
	for _, failure := range report.Failed {
		ids = append(ids, failure.ID)
	}
	return ids
}
