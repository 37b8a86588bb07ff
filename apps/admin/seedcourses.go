package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/course"
)

// seedCourses loads a catalog from a JSON file; existing courses (matched
// by title) are skipped.
func (cli *commandLine) seedCourses(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading catalog file")
	}

	var catalog []course.NewCourse
	if err = json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "decoding catalog file")
	}

	existing, err := cli.crsSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	titles := make(map[string]bool, len(existing))
	for _, crs := range existing {
		titles[crs.Title] = true
	}

	var created int
	for _, nc := range catalog {
		if titles[nc.Title] {
			continue
		}
		if _, err = cli.crsSvc.Create(nc); err != nil {
			return errors.Wrapf(err, "creating course %q", nc.Title)
		}
		created++
	}
	fmt.Printf("seeded %d course(s), skipped %d existing\n", created, len(catalog)-created)
	return nil
}
