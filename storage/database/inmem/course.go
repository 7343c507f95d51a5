package inmemdb

import (
	"sort"
	"strings"

	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	courses    *courseTable
	categories *categoryTable
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{courses: db.course, categories: db.category}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.courses.table))
	for _, crs := range repo.courses.table {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()
	repo.courses.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses() ([]course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()
	return repo.query(), nil
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	if crs, ok := repo.courses.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter) ([]course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	if filter.IsEmpty() {
		return repo.query(), nil
	}

	matches := make([]course.Course, 0)
	search := strings.ToLower(filter.Search)
	for _, crs := range repo.query() {
		if search != "" && !strings.Contains(strings.ToLower(crs.Title), search) {
			continue
		}
		if filter.CategoryID != "" && crs.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Published != nil && crs.Published != *filter.Published {
			continue
		}
		if filter.Instructor != "" && crs.InstructorID != filter.Instructor {
			continue
		}
		matches = append(matches, crs)
	}
	return matches, nil
}

func (repo *courseRepository) DeleteCoursesByID(ids ...string) error {
	repo.courses.Lock()
	defer repo.courses.Unlock()
	for _, id := range ids {
		delete(repo.courses.table, id)
	}
	return nil
}

func (repo *courseRepository) CreateCategory(cat course.Category) (course.Category, error) {
	repo.categories.Lock()
	defer repo.categories.Unlock()
	repo.categories.table[cat.ID] = &cat
	return cat, nil
}

func (repo *courseRepository) QueryAllCategories() ([]course.Category, error) {
	repo.categories.RLock()
	defer repo.categories.RUnlock()

	cats := make([]course.Category, 0, len(repo.categories.table))
	for _, cat := range repo.categories.table {
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *courseRepository) GetCategoryByID(id string) (course.Category, error) {
	repo.categories.RLock()
	defer repo.categories.RUnlock()

	if cat, ok := repo.categories.table[id]; ok {
		return *cat, nil
	}
	return course.Category{}, course.ErrCategoryNotFound
}
