// Package lessons serves the read-only lesson catalog.
package lessons

import "errors"

// ErrNotFound is returned when no lesson has the requested id.
var ErrNotFound = errors.New("lesson not found")

// Lesson is a catalog entry.
type Lesson struct {
	ID               string
	Title            string
	Description      string
	EstimatedMinutes int
}

// Catalog is an immutable, ordered set of lessons. It is safe for concurrent use.
type Catalog struct {
	lessons []Lesson
	byID    map[string]int
}

// NewCatalog builds a catalog from ls, preserving order.
// Later duplicates of an id are ignored.
func NewCatalog(ls []Lesson) *Catalog {
	c := &Catalog{
		lessons: make([]Lesson, 0, len(ls)),
		byID:    make(map[string]int, len(ls)),
	}
	for _, l := range ls {
		if l.ID == "" {
			continue
		}
		if _, dup := c.byID[l.ID]; dup {
			continue
		}
		c.byID[l.ID] = len(c.lessons)
		c.lessons = append(c.lessons, l)
	}
	return c
}

// Default returns the built-in Python track.
func Default() *Catalog {
	return NewCatalog([]Lesson{
		{
			ID:               "control-flow",
			Title:            "Introduction to Control Flow",
			Description:      "Master conditional logic and branching.",
			EstimatedMinutes: 25,
		},
		{
			ID:               "functions",
			Title:            "Functions Fundamentals",
			Description:      "Learn how to define and reuse logic.",
			EstimatedMinutes: 30,
		},
		{
			ID:               "data-structures",
			Title:            "Working with Data Structures",
			Description:      "Practice manipulating lists, tuples, and dictionaries in real scenarios.",
			EstimatedMinutes: 35,
		},
	})
}

// List returns a copy of all lessons in catalog order.
func (c *Catalog) List() []Lesson {
	out := make([]Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}

// Get returns the lesson with id.
func (c *Catalog) Get(id string) (Lesson, error) {
	i, ok := c.byID[id]
	if !ok {
		return Lesson{}, ErrNotFound
	}
	return c.lessons[i], nil
}

// Len returns the number of lessons.
func (c *Catalog) Len() int { return len(c.lessons) }
