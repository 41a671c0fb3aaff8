package pipeline

import (
	"context"

	"takeout/internal/logging"
	"takeout/internal/services"
	"takeout/internal/store"
)

// FileOutcome is the result of one unit of per-file work. Exactly one of
// Status (the row's next status) or Err is meaningful; a set Err converts to
// a FAILED row unless it is fatal, in which case it aborts the run.
type FileOutcome struct {
	FileID int64
	Status store.Status
	Err    error
}

func succeeded(fileID int64, status store.Status) FileOutcome {
	return FileOutcome{FileID: fileID, Status: status}
}

func failed(fileID int64, err error) FileOutcome {
	return FileOutcome{FileID: fileID, Err: err}
}

// commitOutcomes persists a page's outcomes in row order. Per-file errors are
// absorbed into the row; store failures and fatal errors propagate and end
// the run.
func (p *Pipeline) commitOutcomes(ctx context.Context, outcomes []FileOutcome) error {
	phase, _ := services.PhaseFromContext(ctx)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			if services.IsFatal(outcome.Err) {
				return outcome.Err
			}
			logging.WithContext(services.WithFileID(ctx, outcome.FileID), p.logger).
				Warn("file failed", logging.Error(outcome.Err))
			if err := p.store.SetStatus(ctx, outcome.FileID, store.StatusFailed, phase, outcome.Err.Error()); err != nil {
				return services.Wrap(services.ErrPersistence, "pipeline", "record-failure", "", err)
			}
			continue
		}
		if err := p.store.SetStatus(ctx, outcome.FileID, outcome.Status, phase, ""); err != nil {
			return services.Wrap(services.ErrPersistence, "pipeline", "advance-status", "", err)
		}
	}
	return nil
}
