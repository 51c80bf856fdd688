package service

import (
	"sync"

	"github.com/utafrali/configurator/internal/domain"
)

// ColorState holds the colors last loaded by FetchColors. The zero value is
// ready to use and safe for concurrent use.
type ColorState struct {
	mu     sync.RWMutex
	colors []domain.ColorOption
}

// Set replaces the stored colors.
func (c *ColorState) Set(colors []domain.ColorOption) {
	cp := make([]domain.ColorOption, len(colors))
	copy(cp, colors)

	c.mu.Lock()
	c.colors = cp
	c.mu.Unlock()
}

// Colors returns a copy of the stored colors.
func (c *ColorState) Colors() []domain.ColorOption {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ColorOption, len(c.colors))
	copy(out, c.colors)
	return out
}
