package models

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[ModelFamily]*OutputClassSet{
		ModelFamilyHardHat: HardHatClasses,
	}
)

// Register adds a class set under its Style. Registering a family twice is
// an error.
func Register(set *OutputClassSet) error {
	if set == nil || set.Style == "" {
		return fmt.Errorf("class set must have a style")
	}
	for i, c := range set.Classes {
		if c.Index != i {
			return fmt.Errorf("class %q of style %q has index %d, want %d", c.Name, set.Style, c.Index, i)
		}
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[set.Style]; ok {
		return fmt.Errorf("model family %q already registered", set.Style)
	}
	registry[set.Style] = set
	return nil
}

// ClassSetFor returns the class set of a model family. An empty family
// selects the hard-hat set.
func ClassSetFor(family ModelFamily) (*OutputClassSet, error) {
	if family == "" {
		family = ModelFamilyHardHat
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	set, ok := registry[family]
	if !ok {
		return nil, fmt.Errorf("unknown model family %q", family)
	}
	return set, nil
}

// Families returns the registered model families in sorted order.
func Families() []ModelFamily {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]ModelFamily, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
