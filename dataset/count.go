package dataset

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/hardhat/models"
	"github.com/nvr-ai/hardhat/util"
)

// Counts holds the number of annotated instances per class.
type Counts struct {
	Helmet int `json:"helmet"`
	Head   int `json:"head"`
	Person int `json:"person"`
	// Other counts objects of any other class.
	Other int `json:"other"`
}

// Total returns the number of instances of the three known classes.
func (c Counts) Total() int {
	return c.Helmet + c.Head + c.Person
}

// CountInstances adds the objects in ann to acc and returns the sum.
func CountInstances(acc Counts, ann *Annotation) Counts {
	for _, obj := range ann.Objects {
		switch obj.Name {
		case models.ClassHelmet:
			acc.Helmet++
		case models.ClassHead:
			acc.Head++
		case models.ClassPerson:
			acc.Person++
		default:
			acc.Other++
		}
	}
	return acc
}

// CountDir counts the instances in every *.xml file in dir.
func CountDir(dir string) (Counts, error) {
	var acc Counts

	files, err := util.ListFiles(dir, ".xml")
	if err != nil {
		return acc, err
	}
	if len(files) == 0 {
		return acc, errors.Wrapf(ErrNoAnnotations, "in %s", dir)
	}

	for _, path := range files {
		ann, err := ParseVOC(path)
		if err != nil {
			return acc, err
		}
		acc = CountInstances(acc, ann)
	}
	return acc, nil
}
