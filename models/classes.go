package models

import (
	"fmt"
	"sync"
)

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet ties a model family to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style ModelFamily
	// Classes that are supported and mappable, ordered by Index.
	Classes []OutputClass

	once      sync.Once
	nameToIdx map[string]int
}

// buildNameIndexMap builds the name->index map on first use.
func (s *OutputClassSet) buildNameIndexMap() {
	s.once.Do(func() {
		s.nameToIdx = make(map[string]int, len(s.Classes))
		for _, c := range s.Classes {
			s.nameToIdx[c.Name] = c.Index
		}
	})
}

// Len returns the number of classes in the set.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// Name returns the class name for an index.
func (s *OutputClassSet) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", fmt.Errorf("index %d out of range for style %q", idx, s.Style)
	}
	return s.Classes[idx].Name, nil
}

// Index returns the class index for a name.
func (s *OutputClassSet) Index(name string) (int, error) {
	s.buildNameIndexMap()
	idx, ok := s.nameToIdx[name]
	if !ok {
		return -1, fmt.Errorf("name %q not found in style %q", name, s.Style)
	}
	return idx, nil
}

// Names returns the class names ordered by index.
func (s *OutputClassSet) Names() []string {
	names := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		names[i] = c.Name
	}
	return names
}

// HardHatClasses is the label set of the hard-hat detector and of the YOLO
// label files produced from the VOC annotations.
var HardHatClasses = &OutputClassSet{
	Style: ModelFamilyHardHat,
	Classes: []OutputClass{
		{0, ClassHelmet},
		{1, ClassHead},
		{2, ClassPerson},
	},
}
