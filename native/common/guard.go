package common

import (
	"errors"
	"fmt"
	"strings"
)

var ErrModulePaused = fmt.Errorf("%w: module paused", ErrState)

type PauseView interface {
	IsPaused(module string) bool
}

// PauseSet is a static PauseView built from configuration.
type PauseSet map[string]struct{}

// NewPauseSet normalises the module names into a PauseSet.
func NewPauseSet(modules []string) PauseSet {
	set := make(PauseSet, len(modules))
	for _, module := range modules {
		if trimmed := strings.ToLower(strings.TrimSpace(module)); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// IsPaused implements PauseView.
func (p PauseSet) IsPaused(module string) bool {
	_, ok := p[strings.ToLower(strings.TrimSpace(module))]
	return ok
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// IsPaused reports whether err came from Guard.
func IsPaused(err error) bool {
	return errors.Is(err, ErrModulePaused)
}
