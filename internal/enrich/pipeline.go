// Package enrich drives the batch enrichment run: it partitions the
// posident working set into service-sized batches and pushes each batch
// through request building, the service call, response classification,
// attribute translation, and transactional persistence. Batches run
// sequentially; the first stage error aborts the run.
package enrich

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ctios/internal/response"
	"ctios/internal/store"
	"ctios/internal/translate"
)

// RequestBuilder renders one request document for a batch of posidents.
type RequestBuilder interface {
	Build(batch []string) (string, error)
}

// Caller performs the HTTP exchange with the service.
type Caller interface {
	Call(ctx context.Context, requestDoc string) (string, error)
}

// Pipeline wires the per-batch stages together. The store is opened per
// operation through OpenStore and closed before the operation returns, so
// no connection is held across batch boundaries.
type Pipeline struct {
	MaxBatchSize int
	Builder      RequestBuilder
	Gateway      Caller
	Classifier   *response.Classifier
	Translator   *translate.Translator
	OpenStore    func() (*store.Store, error)
	Log          *zap.Logger
}

// Summary is the run-level result reported to the caller.
type Summary struct {
	RunID            string
	TotalIdentifiers int
	Batches          int
	Counters         response.RunCounters
}

// Run resolves the posident working set, processes it batch by batch and
// returns the accumulated counters. filter optionally narrows the set; when
// empty every posident in the table is selected. Any stage error terminates
// the run immediately; a swallowed batch failure would leave the counters
// lying about what actually happened.
func (p *Pipeline) Run(ctx context.Context, filter string) (*Summary, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()[:8]
	log = log.With(zap.String("run_id", runID))

	ids, err := p.loadPosidents(filter)
	if err != nil {
		return nil, err
	}
	log.Info("resolved posident working set", zap.Int("posidents", len(ids)))

	batches := Partition(ids, p.MaxBatchSize)
	log.Info("partitioned into batches",
		zap.Int("batches", len(batches)),
		zap.Int("max_batch_size", p.MaxBatchSize))

	var counters response.RunCounters
	for i, batch := range batches {
		if err := p.processBatch(ctx, batch, &counters, log); err != nil {
			return nil, fmt.Errorf("batch %d/%d failed: %w", i+1, len(batches), err)
		}
	}

	log.Info("run complete",
		zap.Int("succeeded", counters.Succeeded),
		zap.Int("invalid_identifier", counters.InvalidIdentifier),
		zap.Int("expired_identifier", counters.ExpiredIdentifier),
		zap.Int("subject_not_found", counters.SubjectNotFound))

	return &Summary{
		RunID:            runID,
		TotalIdentifiers: len(ids),
		Batches:          len(batches),
		Counters:         counters,
	}, nil
}

// loadPosidents reads the deduplicated posident set within its own store
// scope.
func (p *Pipeline) loadPosidents(filter string) ([]string, error) {
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Posidents(filter)
}

// processBatch runs one batch through the full stage sequence.
func (p *Pipeline) processBatch(ctx context.Context, batch []string, counters *response.RunCounters, log *zap.Logger) error {
	doc, err := p.Builder.Build(batch)
	if err != nil {
		return err
	}

	responseDoc, err := p.Gateway.Call(ctx, doc)
	if err != nil {
		return err
	}

	records, err := p.Classifier.Classify(responseDoc, counters)
	if err != nil {
		return err
	}

	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cols, err := st.EnsureServiceIDColumn()
	if err != nil {
		return err
	}

	updates := make([]store.Update, 0, len(records))
	for _, rec := range records {
		if rec.Outcome != response.OutcomeSuccess {
			continue
		}
		columns := make(map[string]string, len(rec.Attributes))
		for attr, value := range rec.Attributes {
			col, err := p.Translator.Resolve(attr, cols)
			if err != nil {
				return err
			}
			columns[col] = value
		}
		updates = append(updates, store.Update{
			Posident:        rec.Posident,
			ServiceRecordID: rec.ServiceRecordID,
			Columns:         columns,
		})
	}

	if err := st.ApplyBatch(updates); err != nil {
		return err
	}

	log.Debug("batch processed",
		zap.Int("requested", len(batch)),
		zap.Int("persisted", len(updates)))
	return nil
}
