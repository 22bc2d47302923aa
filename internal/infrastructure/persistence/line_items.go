package persistence

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/domain/shared"
)

// orderByPosition keeps preloaded document lines in their display order
func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("line_items.position ASC")
}

// saveLineItems reconciles the stored lines of one document with the
// aggregate's current lines: removed lines are deleted, the rest are
// upserted.
func saveLineItems(tx *gorm.DB, documentID uuid.UUID, items []billing.LineItem) error {
	if len(items) == 0 {
		return tx.Where("document_id = ?", documentID).Delete(&billing.LineItem{}).Error
	}

	currentIDs := make([]uuid.UUID, len(items))
	for i := range items {
		currentIDs[i] = items[i].ID
	}
	if err := tx.Where("document_id = ? AND id NOT IN ?", documentID, currentIDs).
		Delete(&billing.LineItem{}).Error; err != nil {
		return err
	}

	for i := range items {
		if err := tx.Save(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// readVersion reads the stored optimistic-lock version of one aggregate row
func readVersion(tx *gorm.DB, model interface{}, id uuid.UUID) (int, error) {
	var currentVersion int
	err := tx.Model(model).
		Where("id = ?", id).
		Select("version").
		First(&currentVersion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return currentVersion, nil
}
