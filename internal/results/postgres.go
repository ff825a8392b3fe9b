package results

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/topk"
	"github.com/google/uuid"
)

// TxRunner runs fn in one transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// PostgresSink stores a run's rows in PostgreSQL.
//
// It requires a `ranking_results` table:
//
//	CREATE TABLE ranking_results (
//	    run_id    UUID NOT NULL,
//	    run_name  TEXT NOT NULL,
//	    model     TEXT NOT NULL,
//	    topic     TEXT NOT NULL,
//	    document  TEXT NOT NULL,
//	    rank      INT NOT NULL,
//	    score     DOUBLE PRECISION NOT NULL,
//	    PRIMARY KEY (run_id, topic, rank)
//	);
type PostgresSink struct {
	db     TxRunner
	logger *slog.Logger
}

func NewPostgresSink(db TxRunner) *PostgresSink {
	return &PostgresSink{
		db:     db,
		logger: slog.Default().With("component", "results-sink"),
	}
}

// Save inserts all rows under a fresh run id and returns it. Either every row
// is stored or none.
func (s *PostgresSink) Save(ctx context.Context, run, model string, rows []topk.Ranked) (uuid.UUID, error) {
	runID := uuid.New()
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ranking_results (run_id, run_name, model, topic, document, rank, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, runID, run, model, r.Topic, r.ExternalID, r.Rank, r.Score); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("saving ranking results: %w", err)
	}
	s.logger.Info("ranking results saved", "run_id", runID, "rows", len(rows))
	return runID, nil
}
