package main

import (
	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

// seedCategories creates the given course categories, skipping names
// that already exist.
func (cli *commandLine) seedCategories(names []string) error {
	existing, err := cli.crsRepo.QueryAllCategories()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, cat := range existing {
		known[cat.Name] = struct{}{}
	}

	for _, name := range names {
		name = core.CleanString(name)
		if name == "" {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		if _, err := cli.crsRepo.CreateCategory(course.Category{ID: uuid.New().String(), Name: name}); err != nil {
			return err
		}
		known[name] = struct{}{}
	}
	return nil
}
