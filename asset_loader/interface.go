package asset_loader

import (
	"context"

	"previz_studio/entities"
)

// Loader builds the renderable subject for a model. Load never fails: load errors are
// logged and replaced by a fallback primitive.
type Loader interface {
	Load(ctx context.Context, model entities.SubjectModel) *Subject
}
