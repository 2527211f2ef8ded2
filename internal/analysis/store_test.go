package analysis

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/nao1215/scratchindex/internal/model"
)

// memoryStore implements ImageStore and ExperimentStore in memory.
type memoryStore struct {
	mu sync.Mutex

	experiments map[string]*memoryExperiment
	images      map[string]memoryImage
	order       []string

	replaceCalls int
	upsertCalls  int

	// replaceErr, when set, fails ReplaceResultSet.
	replaceErr error
}

type memoryExperiment struct {
	region *model.Region
	set    model.ResultSet
}

type memoryImage struct {
	ref  model.ImageRef
	data []byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		experiments: make(map[string]*memoryExperiment),
		images:      make(map[string]memoryImage),
	}
}

func (s *memoryStore) addExperiment(id string, region *model.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[id] = &memoryExperiment{region: region}
}

func (s *memoryStore) addImage(experimentID, id string, passes int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = memoryImage{
		ref:  model.ImageRef{ID: id, ExperimentID: experimentID, Passes: passes},
		data: data,
	}
	s.order = append(s.order, id)
}

func (s *memoryStore) deleteImage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *memoryStore) storedSet(t *testing.T, experimentID string) model.ResultSet {
	t.Helper()
	set, err := s.GetResultSet(context.Background(), experimentID)
	if err != nil {
		t.Fatalf("GetResultSet: %v", err)
	}
	return set
}

func (s *memoryStore) GetImage(_ context.Context, imageID string) (model.ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[imageID]
	if !ok {
		return model.ImageRef{}, model.ErrImageNotFound
	}
	return img.ref, nil
}

func (s *memoryStore) GetBytes(_ context.Context, imageID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[imageID]
	if !ok {
		return nil, model.ErrImageNotFound
	}
	return img.data, nil
}

func (s *memoryStore) ListByExperiment(_ context.Context, experimentID string) ([]model.ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiments[experimentID]; !ok {
		return nil, model.ErrExperimentNotFound
	}
	var out []model.ImageRef
	for _, id := range s.order {
		if img := s.images[id]; img.ref.ExperimentID == experimentID {
			out = append(out, img.ref)
		}
	}
	return out, nil
}

func (s *memoryStore) experiment(id string) (*memoryExperiment, error) {
	e, ok := s.experiments[id]
	if !ok {
		return nil, model.ErrExperimentNotFound
	}
	return e, nil
}

func (s *memoryStore) GetRegion(_ context.Context, experimentID string) (*model.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.experiment(experimentID)
	if err != nil {
		return nil, err
	}
	return e.region, nil
}

func (s *memoryStore) SetRegion(_ context.Context, experimentID string, region *model.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.experiment(experimentID)
	if err != nil {
		return err
	}
	e.region = region
	return nil
}

func (s *memoryStore) GetResultSet(_ context.Context, experimentID string) (model.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.experiment(experimentID)
	if err != nil {
		return nil, err
	}
	return e.set.Clone(), nil
}

func (s *memoryStore) ReplaceResultSet(_ context.Context, experimentID string, set model.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.experiment(experimentID)
	if err != nil {
		return err
	}
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaceCalls++
	e.set = set.Clone()
	return nil
}

func (s *memoryStore) UpsertResult(_ context.Context, experimentID string, result model.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.experiment(experimentID)
	if err != nil {
		return err
	}
	s.upsertCalls++
	e.set = e.set.Upsert(result)
	return nil
}

func (s *memoryStore) RemoveResult(_ context.Context, experimentID, imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.experiment(experimentID)
	if err != nil {
		return err
	}
	e.set, _ = e.set.Remove(imageID)
	return nil
}

// solidPNG encodes a width×height PNG filled with c.
func solidPNG(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	return patternPNG(t, width, height, func(int, int) color.NRGBA { return c })
}

// patternPNG encodes a PNG whose pixel colors come from fn.
func patternPNG(t *testing.T, width, height int, fn func(x, y int) color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, fn(x, y))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
	gray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

func TestMemoryStoreSatisfiesPorts(t *testing.T) {
	t.Parallel()

	var _ ImageStore = newMemoryStore()
	var _ ExperimentStore = newMemoryStore()

	s := newMemoryStore()
	if _, err := s.GetRegion(context.Background(), "missing"); !errors.Is(err, model.ErrExperimentNotFound) {
		t.Errorf("expected ErrExperimentNotFound, got %v", err)
	}
}

// blockingImages serves metadata from memoryStore but never returns bytes
// before ctx ends.
type blockingImages struct {
	*memoryStore
}

func (b *blockingImages) GetBytes(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
