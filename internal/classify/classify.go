// Package classify maps file names to sorting categories by extension.
package classify

import (
	"path/filepath"
	"strings"

	"sortify/internal/config"
)

// FallbackCategory is returned when no configured category claims a file's
// extension.
const FallbackCategory = "Others"

// Classifier resolves file names to category names. It is pure and safe for
// concurrent use.
type Classifier struct {
	categories []config.Category
}

// New builds a classifier over the given ordered category list. Extensions
// are matched lowercase; when sets overlap, the first category in the list
// wins.
func New(categories []config.Category) *Classifier {
	copied := make([]config.Category, len(categories))
	copy(copied, categories)
	return &Classifier{categories: copied}
}

// Categorize returns the category for the given file name. A name without an
// extension matches no category and falls back to FallbackCategory.
func (c *Classifier) Categorize(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return FallbackCategory
	}
	for _, cat := range c.categories {
		for _, candidate := range cat.Extensions {
			if candidate == ext {
				return cat.Name
			}
		}
	}
	return FallbackCategory
}
