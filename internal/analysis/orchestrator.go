package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/scratchindex/internal/histogram"
	"github.com/nao1215/scratchindex/internal/imaging"
	"github.com/nao1215/scratchindex/internal/log"
	"github.com/nao1215/scratchindex/internal/model"
	"github.com/nao1215/scratchindex/internal/pipeline"
	"github.com/nao1215/scratchindex/internal/scratch"
)

// Orchestrator computes and persists scratch indices for experiments.
// It is safe for concurrent use.
type Orchestrator struct {
	images      ImageStore
	experiments ExperimentStore

	calculator *scratch.Calculator
	decoder    *imaging.Decoder

	// concurrency bounds the images decoded at once during a recompute.
	concurrency int

	// recomputeTimeout bounds a full recompute; zero means no bound.
	recomputeTimeout time.Duration

	logger *slog.Logger
	locks  *keyedMutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithCalculator sets the scratch index calculator. nil is ignored.
func WithCalculator(c *scratch.Calculator) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.calculator = c
		}
	}
}

// WithDecoder sets the image decoder. nil is ignored.
func WithDecoder(d *imaging.Decoder) Option {
	return func(o *Orchestrator) {
		if d != nil {
			o.decoder = d
		}
	}
}

// WithConcurrency sets how many images are analyzed at once.
// Non-positive values are ignored.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRecomputeTimeout bounds the wall-clock time of a full recompute.
// Zero or negative disables the bound.
func WithRecomputeTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.recomputeTimeout = d
	}
}

// New creates an Orchestrator over the given stores.
func New(images ImageStore, experiments ExperimentStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		images:      images,
		experiments: experiments,
		calculator:  scratch.NewCalculator(),
		decoder:     imaging.NewDecoder(),
		concurrency: pipeline.DefaultConcurrency,
		locks:       newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// AnalyzeSingleImage scores one image against its experiment's reference and
// upserts the result. Analyzing the same image twice replaces its entry.
//
// The first image of an experiment is its own reference and scores 0.
// When the analyzed image is the reference and other results are already
// stored, they were scored against another baseline, so the whole set is
// recomputed instead of upserting one entry.
func (o *Orchestrator) AnalyzeSingleImage(ctx context.Context, imageID string) (model.AnalysisResult, error) {
	img, err := o.images.GetImage(ctx, imageID)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("get image %s: %w", imageID, err)
	}
	ctx = log.WithImage(log.WithExperiment(ctx, img.ExperimentID), img.ID)

	unlock, err := o.locks.Lock(ctx, img.ExperimentID)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	defer unlock()

	region, err := o.experiments.GetRegion(ctx, img.ExperimentID)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("get region: %w", err)
	}

	images, err := o.images.ListByExperiment(ctx, img.ExperimentID)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("list images: %w", err)
	}
	if !containsImage(images, img.ID) {
		images = append(images, img)
	}

	ref, err := resolveReference(images)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analyze image %s: %w", img.ID, err)
	}

	if ref.ID == img.ID {
		stale, err := o.hasOtherResults(ctx, img.ExperimentID, img.ID)
		if err != nil {
			return model.AnalysisResult{}, err
		}
		if stale {
			return o.rebaseOnReference(ctx, img, region)
		}
	}

	targets := []model.ImageRef{img}
	if ref.ID != img.ID {
		targets = append(targets, ref)
	}

	frames, err := o.analyzeFrames(ctx, targets, region)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analyze image %s: %w", img.ID, unwrapFrameError(err))
	}

	result, err := o.score(frames[ref.ID].Histogram, frames[img.ID])
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analyze image %s: %w", img.ID, err)
	}

	if err := o.experiments.UpsertResult(ctx, img.ExperimentID, result); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("store result: %w", err)
	}

	o.logger.InfoContext(ctx, "image analyzed",
		"passes", result.Passes,
		"scratch_index", result.ScratchIndex,
		"reference", ref.ID,
	)

	return result, nil
}

// hasOtherResults reports whether the stored set holds a result for an image
// other than imageID.
func (o *Orchestrator) hasOtherResults(ctx context.Context, experimentID, imageID string) (bool, error) {
	set, err := o.experiments.GetResultSet(ctx, experimentID)
	if err != nil {
		return false, fmt.Errorf("get result set: %w", err)
	}
	for _, r := range set {
		if r.ImageID != imageID {
			return true, nil
		}
	}
	return false, nil
}

// rebaseOnReference recomputes the experiment after ref became its baseline
// and returns ref's own result. The caller holds the experiment lock.
func (o *Orchestrator) rebaseOnReference(ctx context.Context, ref model.ImageRef, region *model.Region) (model.AnalysisResult, error) {
	o.logger.InfoContext(ctx, "reference analyzed, recomputing stored results")

	set, err := o.recalculateLocked(ctx, ref.ExperimentID, region, "")
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analyze image %s: %w", ref.ID, err)
	}
	i := set.Find(ref.ID)
	if i < 0 {
		return model.AnalysisResult{}, fmt.Errorf("analyze image %s: %w", ref.ID, model.ErrImageNotFound)
	}
	return set[i], nil
}

// RecalculateExperiment recomputes every image of the experiment and
// replaces the stored result set, ordered by passes.
//
// On any failure the stored set is left as it was and the error is a
// *model.RecomputeAbortedError.
func (o *Orchestrator) RecalculateExperiment(ctx context.Context, experimentID string) (model.ResultSet, error) {
	ctx = log.WithExperiment(ctx, experimentID)

	unlock, err := o.locks.Lock(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	region, err := o.experiments.GetRegion(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("get region: %w", err)
	}

	return o.recalculateLocked(ctx, experimentID, region, "")
}

// recalculateLocked lists the experiment's images, computes them under
// region and replaces the stored set. exclude names an image to skip.
// The caller holds the experiment lock.
func (o *Orchestrator) recalculateLocked(ctx context.Context, experimentID string, region *model.Region, exclude string) (model.ResultSet, error) {
	images, err := o.listImages(ctx, experimentID, exclude)
	if err != nil {
		return nil, err
	}

	set, err := o.computeResultSet(ctx, experimentID, region, images)
	if err != nil {
		o.logger.WarnContext(ctx, "recompute aborted", "error", err)
		return nil, err
	}

	if err := o.experiments.ReplaceResultSet(ctx, experimentID, set); err != nil {
		return nil, fmt.Errorf("replace result set: %w", err)
	}

	o.logger.InfoContext(ctx, "experiment recalculated", "images", len(set))
	return set, nil
}

// GetImageHistogram returns the histogram payload of one image under its
// experiment's region. Nothing is written.
func (o *Orchestrator) GetImageHistogram(ctx context.Context, imageID string) (histogram.Payload, error) {
	img, err := o.images.GetImage(ctx, imageID)
	if err != nil {
		return histogram.Payload{}, fmt.Errorf("get image %s: %w", imageID, err)
	}

	region, err := o.experiments.GetRegion(ctx, img.ExperimentID)
	if err != nil {
		return histogram.Payload{}, fmt.Errorf("get region: %w", err)
	}

	frames, err := o.analyzeFrames(ctx, []model.ImageRef{img}, region)
	if err != nil {
		return histogram.Payload{}, fmt.Errorf("histogram of image %s: %w", imageID, unwrapFrameError(err))
	}

	payload := frames[img.ID].Histogram.Payload()
	payload.ImageID = img.ID
	return payload, nil
}

// UpdateRegion changes the experiment's region and recomputes every result
// under it. The region and the result set change together or not at all.
// A nil region analyzes whole images.
func (o *Orchestrator) UpdateRegion(ctx context.Context, experimentID string, region *model.Region) (model.ResultSet, error) {
	if region != nil {
		if err := region.Validate(); err != nil {
			return nil, err
		}
	}

	ctx = log.WithExperiment(ctx, experimentID)

	unlock, err := o.locks.Lock(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous, err := o.experiments.GetRegion(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("get region: %w", err)
	}

	images, err := o.listImages(ctx, experimentID, "")
	if err != nil {
		return nil, err
	}

	set, err := o.computeResultSet(ctx, experimentID, region, images)
	if err != nil {
		o.logger.WarnContext(ctx, "region not changed", "error", err)
		return nil, err
	}

	if err := o.storeRegionAndSet(ctx, experimentID, previous, region, set); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "region updated",
		"region", regionString(region),
		"images", len(set),
	)
	return set, nil
}

func (o *Orchestrator) storeRegionAndSet(ctx context.Context, experimentID string, previous, region *model.Region, set model.ResultSet) error {
	if rr, ok := o.experiments.(RegionReplacer); ok {
		if err := rr.ReplaceRegionAndResultSet(ctx, experimentID, region, set); err != nil {
			return fmt.Errorf("replace region and results: %w", err)
		}
		return nil
	}

	if err := o.experiments.SetRegion(ctx, experimentID, region); err != nil {
		return fmt.Errorf("set region: %w", err)
	}
	if err := o.experiments.ReplaceResultSet(ctx, experimentID, set); err != nil {
		if rerr := o.experiments.SetRegion(ctx, experimentID, previous); rerr != nil {
			return errors.Join(fmt.Errorf("replace result set: %w", err), fmt.Errorf("restore region: %w", rerr))
		}
		return fmt.Errorf("replace result set: %w", err)
	}
	return nil
}

// RemoveImageResult drops the result of a deleted image.
//
// When the removed image was the reference, the remaining results have lost
// their baseline: they are recomputed against the new reference if exactly
// one exists, and cleared otherwise.
func (o *Orchestrator) RemoveImageResult(ctx context.Context, experimentID, imageID string) (model.ResultSet, error) {
	ctx = log.WithImage(log.WithExperiment(ctx, experimentID), imageID)

	unlock, err := o.locks.Lock(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	set, err := o.experiments.GetResultSet(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("get result set: %w", err)
	}

	i := set.Find(imageID)
	if i < 0 {
		return set, nil
	}

	if set[i].Passes != model.ReferencePasses {
		if err := o.experiments.RemoveResult(ctx, experimentID, imageID); err != nil {
			return nil, fmt.Errorf("remove result: %w", err)
		}
		remaining, _ := set.Remove(imageID)
		o.logger.DebugContext(ctx, "result removed")
		return remaining, nil
	}

	images, err := o.listImages(ctx, experimentID, imageID)
	if err != nil {
		return nil, err
	}
	if _, err := resolveReference(images); err != nil || len(images) == 0 {
		if err := o.experiments.ReplaceResultSet(ctx, experimentID, model.ResultSet{}); err != nil {
			return nil, fmt.Errorf("clear result set: %w", err)
		}
		o.logger.WarnContext(ctx, "reference removed, results cleared", "remaining_images", len(images))
		return model.ResultSet{}, nil
	}

	region, err := o.experiments.GetRegion(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("get region: %w", err)
	}

	recomputed, err := o.recalculateLocked(ctx, experimentID, region, imageID)
	if err != nil {
		// keep the stale set consistent with the image list at least
		if rerr := o.experiments.RemoveResult(ctx, experimentID, imageID); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}
	return recomputed, nil
}

// ImageStats is the per-image summary produced by QuickAnalysis.
type ImageStats struct {
	ImageID            string `json:"image_id"`
	Passes             int    `json:"passes"`
	TotalPixels        int    `json:"total_pixels"`
	DominantBrightness int    `json:"dominant_brightness"`
	LevelsCount        int    `json:"brightness_levels_count"`
}

// QuickReport is the result of QuickAnalysis.
type QuickReport struct {
	ExperimentID string       `json:"experiment_id"`
	Images       []ImageStats `json:"images"`
	Count        int          `json:"count"`
}

// QuickAnalysis computes per-image histogram statistics for an experiment
// without scoring or writing anything.
func (o *Orchestrator) QuickAnalysis(ctx context.Context, experimentID string) (QuickReport, error) {
	ctx = log.WithExperiment(ctx, experimentID)

	region, err := o.experiments.GetRegion(ctx, experimentID)
	if err != nil {
		return QuickReport{}, fmt.Errorf("get region: %w", err)
	}

	images, err := o.listImages(ctx, experimentID, "")
	if err != nil {
		return QuickReport{}, err
	}

	report := QuickReport{
		ExperimentID: experimentID,
		Images:       make([]ImageStats, 0, len(images)),
	}
	if len(images) == 0 {
		return report, nil
	}

	frames, err := o.analyzeFrames(ctx, images, region)
	if err != nil {
		return QuickReport{}, fmt.Errorf("quick analysis: %w", err)
	}

	for _, img := range images {
		h := frames[img.ID].Histogram
		report.Images = append(report.Images, ImageStats{
			ImageID:            img.ID,
			Passes:             img.Passes,
			TotalPixels:        h.TotalPixels,
			DominantBrightness: h.DominantBrightness,
			LevelsCount:        h.LevelsCount,
		})
	}
	report.Count = len(report.Images)
	return report, nil
}

// computeResultSet scores images against their reference without writing.
// Every failure is returned as a *model.RecomputeAbortedError.
func (o *Orchestrator) computeResultSet(ctx context.Context, experimentID string, region *model.Region, images []model.ImageRef) (model.ResultSet, error) {
	if len(images) == 0 {
		return model.ResultSet{}, nil
	}

	ref, err := resolveReference(images)
	if err != nil {
		return nil, &model.RecomputeAbortedError{ExperimentID: experimentID, Err: err}
	}

	if o.recomputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.recomputeTimeout)
		defer cancel()
	}

	started := time.Now()
	frames, err := o.analyzeFrames(ctx, images, region)
	if err != nil {
		var fe *pipeline.FrameError
		if errors.As(err, &fe) {
			return nil, &model.RecomputeAbortedError{ExperimentID: experimentID, ImageID: fe.ImageID, Err: fe.Err}
		}
		return nil, &model.RecomputeAbortedError{ExperimentID: experimentID, Err: err}
	}

	refHist := frames[ref.ID].Histogram
	set := make(model.ResultSet, 0, len(images))
	for _, img := range images {
		result, err := o.score(refHist, frames[img.ID])
		if err != nil {
			return nil, &model.RecomputeAbortedError{ExperimentID: experimentID, ImageID: img.ID, Err: err}
		}
		set = append(set, result)
	}
	set.SortByPasses()

	o.logger.DebugContext(ctx, "result set computed",
		"images", len(set),
		"reference", ref.ID,
		"elapsed", time.Since(started),
	)
	return set, nil
}

// analyzeFrames runs the per-image pipeline over refs and returns the
// finished frames keyed by image id.
func (o *Orchestrator) analyzeFrames(ctx context.Context, refs []model.ImageRef, region *model.Region) (map[string]*pipeline.Frame, error) {
	frames := make([]*pipeline.Frame, 0, len(refs))
	byID := make(map[string]*pipeline.Frame, len(refs))
	for _, ref := range refs {
		if _, dup := byID[ref.ID]; dup {
			continue
		}
		f := pipeline.NewFrame(ref, region)
		frames = append(frames, f)
		byID[ref.ID] = f
	}

	bp := pipeline.NewBatchProcessor(o.newPipeline,
		pipeline.WithConcurrency(o.concurrency),
		pipeline.WithBatchLogger(o.logger),
	)
	if err := bp.ProcessBatch(ctx, frames); err != nil {
		return nil, err
	}
	return byID, nil
}

func (o *Orchestrator) newPipeline() *pipeline.Pipeline {
	return pipeline.DefaultPipeline(o.images, o.decoder, pipeline.WithLogger(o.logger))
}

func (o *Orchestrator) score(ref *histogram.Histogram, frame *pipeline.Frame) (model.AnalysisResult, error) {
	idx, err := o.calculator.Index(ref, frame.Histogram)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	return model.AnalysisResult{
		ImageID:      frame.ImageID,
		Passes:       frame.Passes,
		ScratchIndex: idx,
		TotalPixels:  frame.Histogram.TotalPixels,
	}, nil
}

// listImages lists the experiment's images, leaving out exclude.
func (o *Orchestrator) listImages(ctx context.Context, experimentID, exclude string) ([]model.ImageRef, error) {
	images, err := o.images.ListByExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if exclude == "" {
		return images, nil
	}
	out := make([]model.ImageRef, 0, len(images))
	for _, img := range images {
		if img.ID != exclude {
			out = append(out, img)
		}
	}
	return out, nil
}

// unwrapFrameError strips the batch wrapper; the image id is already part
// of the caller's message.
func unwrapFrameError(err error) error {
	var fe *pipeline.FrameError
	if errors.As(err, &fe) {
		return fe.Err
	}
	return err
}

func containsImage(images []model.ImageRef, id string) bool {
	for _, img := range images {
		if img.ID == id {
			return true
		}
	}
	return false
}

func regionString(r *model.Region) string {
	if r == nil {
		return "whole image"
	}
	return r.String()
}
