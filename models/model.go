// Package models - Output class sets for the detection models served here.
package models

// ModelFamily identifies the label set a model was trained on.
type ModelFamily string

const (
	// ModelFamilyHardHat is the three-class helmet/head/person label set.
	ModelFamilyHardHat ModelFamily = "hardhat"
)

// Class names of the hard-hat label set.
const (
	ClassHelmet = "helmet"
	ClassHead   = "head"
	ClassPerson = "person"
)
