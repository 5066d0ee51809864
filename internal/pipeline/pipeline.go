package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forestwatch/deforestation-backend-go/internal/config"
	"github.com/forestwatch/deforestation-backend-go/internal/database"
	"github.com/forestwatch/deforestation-backend-go/internal/detection"
	"github.com/forestwatch/deforestation-backend-go/internal/models"
	"github.com/forestwatch/deforestation-backend-go/internal/repository"
	"github.com/forestwatch/deforestation-backend-go/internal/spatial"
)

// recentAlertLookbackDays bounds how far back alerts count as "recent" for
// proximity tightening, measured from the image's acquisition window.
const recentAlertLookbackDays = 60

// Pipeline runs one detection pass per source image: acquire the image,
// evaluate every observed cell in parallel, validate and score candidates,
// classify accepted ones, and commit alerts with the COMPLETED transition in
// one transaction.
type Pipeline struct {
	db  *sql.DB
	cfg *config.Config

	grid         *repository.GridRepository
	observations *repository.ObservationRepository
	boundaryRepo *repository.BoundaryRepository
	alerts       *repository.AlertRepository
	images       *repository.ImageRepository

	baselines  *detection.BaselineStore
	detector   *detection.Detector
	features   *detection.FeatureBuilder
	validator  *detection.Validator
	crossCheck *detection.CrossCheck
	combiner   *detection.Combiner
}

// New wires a pipeline over an open database. The validator is loaded once by
// the caller and reused read-only across passes; optical may be nil when no
// optical collaborator is configured.
func New(db *sql.DB, cfg *config.Config, validator *detection.Validator, optical detection.OpticalSource) *Pipeline {
	observations := repository.NewObservationRepository(db)
	return &Pipeline{
		db:           db,
		cfg:          cfg,
		grid:         repository.NewGridRepository(db),
		observations: observations,
		boundaryRepo: repository.NewBoundaryRepository(db),
		alerts:       repository.NewAlertRepository(db),
		images:       repository.NewImageRepository(db),
		baselines: detection.NewBaselineStore(observations,
			cfg.Detection.WindowSize, cfg.Detection.MinHistory),
		detector:   detection.NewDetector(cfg.Detection.Detector),
		features:   detection.NewFeatureBuilder(cfg.Detection.WindowSize),
		validator:  validator,
		crossCheck: detection.NewCrossCheck(optical),
		combiner:   detection.NewCombiner(cfg.Detection.Combiner),
	}
}

// cellResult is the per-cell outcome collected from the worker pool. Exactly
// one field group is set.
type cellResult struct {
	alert           *models.AlertCandidate
	skipped         *SkippedCell
	triggered       bool
	validatorFailed bool
	rejectedByScore bool
}

// Run processes one source image end to end. A COMPLETED image short-circuits
// with repository.ErrImageAlreadyProcessed and performs zero writes; an image
// held by a concurrent run returns repository.ErrImageStatusConflict. Any
// pass-level failure after acquisition marks the image FAILED (retryable) and
// returns the error.
func (p *Pipeline) Run(ctx context.Context, imageID string) (*PassSummary, error) {
	if p.validator == nil {
		return nil, fmt.Errorf("validator model not loaded")
	}

	if err := p.images.TryAcquire(imageID); err != nil {
		return nil, err
	}

	started := time.Now()
	summary, err := p.runAcquired(ctx, imageID)
	if err != nil {
		if failErr := p.images.MarkFailed(imageID, err.Error()); failErr != nil {
			log.Printf("pass failed and could not mark image image_id=%s err=%q mark_err=%q",
				imageID, err, failErr)
		}
		return nil, err
	}

	summary.Duration = time.Since(started)
	return summary, nil
}

func (p *Pipeline) runAcquired(ctx context.Context, imageID string) (*PassSummary, error) {
	summary := &PassSummary{
		RunID:   uuid.New().String(),
		ImageID: imageID,
	}
	log.Printf("pass started run_id=%s image_id=%s", summary.RunID, imageID)

	boundaries, err := p.boundaryRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("boundary load failed: %w", err)
	}
	classifier := detection.NewClassifier(boundaries, p.cfg.Detection.CellSideMeters)

	observations, err := p.observations.ListByImage(imageID)
	if err != nil {
		return nil, fmt.Errorf("observation load failed: %w", err)
	}

	alerts := []*models.AlertCandidate{}
	if len(observations) > 0 {
		recentAlertCenters, err := p.recentAlertCenters(observations[0].ObservationDate)
		if err != nil {
			return nil, err
		}

		results := make([]cellResult, len(observations))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Pipeline.Workers)
		for i := range observations {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return p.evaluateCell(observations[i], classifier, recentAlertCenters, &results[i])
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i := range results {
			r := &results[i]
			summary.CellsEvaluated++
			if r.skipped != nil {
				summary.Skipped = append(summary.Skipped, *r.skipped)
			}
			if r.triggered {
				summary.CandidatesTriggered++
			}
			if r.validatorFailed {
				summary.ValidatorFailures++
			}
			if r.rejectedByScore {
				summary.RejectedByScore++
			}
			if r.alert != nil {
				alerts = append(alerts, r.alert)
			}
		}
	}

	err = database.Transaction(p.db, func(tx *sql.Tx) error {
		if err := p.alerts.InsertBatchTx(tx, alerts); err != nil {
			return err
		}
		return p.images.MarkCompletedTx(tx, imageID, len(alerts))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit pass results: %w", err)
	}

	summary.AlertsEmitted = len(alerts)
	summary.Log()
	return summary, nil
}

// evaluateCell runs the full per-cell chain: baseline, detector, features,
// validator, optical cross-check, combiner, classifier. Per-cell problems are
// recorded as skips; only storage errors propagate and abort the pass.
func (p *Pipeline) evaluateCell(obs models.Observation, classifier *detection.Classifier,
	recentAlertCenters []spatial.Point, out *cellResult) error {

	cell, err := p.grid.GetByCellID(obs.CellID)
	if err != nil {
		return err
	}
	if cell == nil {
		out.skipped = &SkippedCell{CellID: obs.CellID, Reason: "unknown grid cell"}
		return nil
	}

	history, err := p.baselines.History(obs.CellID)
	if err != nil {
		return err
	}

	baseline, err := p.baselines.Compute(history)
	if err != nil {
		out.skipped = &SkippedCell{CellID: obs.CellID, Reason: err.Error()}
		return nil
	}

	candidate, err := p.detector.Evaluate(detection.CellInput{
		CellID:                      obs.CellID,
		ImageID:                     obs.SourceImageID,
		History:                     history,
		Baseline:                    baseline,
		DistanceToRecentAlertMeters: nearestDistance(cell, recentAlertCenters),
	})
	if err != nil {
		out.skipped = &SkippedCell{CellID: obs.CellID, Reason: err.Error()}
		return nil
	}
	if !candidate.Triggered {
		return nil
	}
	out.triggered = true

	vector, err := p.features.Build(history, p.validator.NormRange())
	if err != nil {
		out.skipped = &SkippedCell{CellID: obs.CellID, Reason: err.Error()}
		return nil
	}

	radarConfidence, err := p.validator.Score(vector.Values)
	if err != nil {
		out.validatorFailed = true
		out.skipped = &SkippedCell{CellID: obs.CellID, Reason: err.Error()}
		return nil
	}

	optical, err := p.crossCheck.Evaluate(obs.CellID)
	if err != nil {
		// Secondary signal only; a lookup failure degrades to unavailable.
		log.Printf("optical cross-check failed cell_id=%s err=%q", obs.CellID, err)
		optical = detection.OpticalScore{}
	}

	combined := p.combiner.Combine(radarConfidence, optical)
	if !p.combiner.Accept(combined) {
		out.rejectedByScore = true
		return nil
	}

	classification := classifier.Classify(cell.CenterLat, cell.CenterLon)

	alert := &models.AlertCandidate{
		CellID:          obs.CellID,
		DetectionDate:   obs.ObservationDate,
		ConfidenceScore: radarConfidence,
		CombinedScore:   combined,
		AreaHectares:    cell.AreaHectares,
		RiskTier:        classification.RiskTier,
		Status:          models.AlertStatusPending,
		VVDropDB:        candidate.VVDropDB,
		VHDropDB:        candidate.VHDropDB,
		SourceImageID:   obs.SourceImageID,
		BoundaryID:      classification.BoundaryID,
		MunicipalityID:  classification.MunicipalityID,
	}
	if optical.Available {
		score := optical.Score
		drop := optical.NDVIDrop
		alert.OpticalScore = &score
		alert.NDVIDrop = &drop
	}
	out.alert = alert
	return nil
}

// recentAlertCenters resolves the centroids of cells alerted within the
// lookback window before the given acquisition date.
func (p *Pipeline) recentAlertCenters(acquisitionDate time.Time) ([]spatial.Point, error) {
	since := acquisitionDate.AddDate(0, 0, -recentAlertLookbackDays)
	cellIDs, err := p.alerts.RecentCells(since)
	if err != nil {
		return nil, err
	}
	cells, err := p.grid.GetByCellIDs(cellIDs)
	if err != nil {
		return nil, err
	}

	centers := make([]spatial.Point, 0, len(cells))
	for _, id := range cellIDs {
		if c, ok := cells[id]; ok {
			centers = append(centers, spatial.Point{Lat: c.CenterLat, Lon: c.CenterLon})
		}
	}
	return centers, nil
}

func nearestDistance(cell *models.GridCell, centers []spatial.Point) float64 {
	nearest := math.Inf(1)
	for _, c := range centers {
		d := spatial.HaversineDistance(cell.CenterLat, cell.CenterLon, c.Lat, c.Lon)
		if d < nearest {
			nearest = d
		}
	}
	return nearest
}
