package registry

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormFinder loads T by primary key "id" from db.
func GormFinder[T any](db *gorm.DB) Finder[T] {
	return func(ctx context.Context, id string) (*T, error) {
		var v T
		err := db.WithContext(ctx).First(&v, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
}
