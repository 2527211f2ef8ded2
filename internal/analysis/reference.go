package analysis

import (
	"fmt"

	"github.com/nao1215/scratchindex/internal/model"
)

// resolveReference picks the baseline image of an experiment.
//
// Exactly one image with zero passes is the reference. With none, an
// experiment holding a single image uses that image as its own baseline;
// any larger set without a reference cannot be scored.
func resolveReference(images []model.ImageRef) (model.ImageRef, error) {
	var refs []model.ImageRef
	for _, img := range images {
		if img.IsReference() {
			refs = append(refs, img)
		}
	}

	switch {
	case len(refs) == 1:
		return refs[0], nil
	case len(refs) > 1:
		return model.ImageRef{}, fmt.Errorf("%w: %d images", model.ErrAmbiguousReference, len(refs))
	case len(images) == 1:
		return images[0], nil
	default:
		return model.ImageRef{}, model.ErrMissingReferenceImage
	}
}
