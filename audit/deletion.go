package audit

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
)

// DeletionService removes single entries on behalf of an administrator.
type DeletionService struct {
	repo Repo
}

func NewDeletionService(repo Repo) *DeletionService {
	return &DeletionService{repo: repo}
}

// DeleteEntry removes the entry with id. A nil error means it was deleted;
// ErrNotFound means it did not exist, including on a repeated delete.
func (d *DeletionService) DeleteEntry(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("DeletionService.DeleteEntry: %w: id is required", apperrors.ErrValidation)
	}
	return storeErr("DeletionService.DeleteEntry", d.repo.Delete(ctx, id))
}
