// Package planner turns a site skeleton into the ordered list of generation tasks
package planner

import (
	"fmt"
	"strconv"
)

// Default batch sizes
const (
	DefaultServiceBatch = 5
	DefaultAreaBatch    = 10

	// CorePageCount is home, about, contact
	CorePageCount = 3
)

// Kind is the task type
type Kind string

// Task kinds
const (
	KindCorePage     Kind = "core_page"
	KindCategoryPage Kind = "category_page"
	KindServicePage  Kind = "service_page"
	KindAreaPage     Kind = "service_area_page"
)

// CorePage names one of the fixed pages every site has
type CorePage string

// Core pages in build order
const (
	PageHome    CorePage = "home"
	PageAbout   CorePage = "about"
	PageContact CorePage = "contact"
)

// CorePages is the fixed build order for core pages
var CorePages = []CorePage{PageHome, PageAbout, PageContact}

// Category is the planner view of a service category
type Category struct {
	ID   string
	Name string
}

// Service is the planner view of a service
type Service struct {
	ID         string
	CategoryID string
	Name       string
}

// Area is the planner view of a service area
type Area struct {
	ID    string
	City  string
	State string
}

// Label renders "City, ST"
func (a Area) Label() string {
	if a.State == "" {
		return a.City
	}
	return a.City + ", " + a.State
}

// Input is everything the planner reads
type Input struct {
	Categories []Category
	Services   []Service
	Areas      []Area

	// zero means the defaults above
	ServiceBatch int
	AreaBatch    int
}

// Task is one unit of work; service and area tasks carry a whole batch
type Task struct {
	Kind     Kind
	Key      string
	Slug     string
	Label    string
	Page     CorePage
	Category *Category
	Services []Service
	Areas    []Area
}

// Size is how many progress ticks the task is worth
func (t Task) Size() int {
	switch t.Kind {
	case KindServicePage:
		return len(t.Services)
	case KindAreaPage:
		return len(t.Areas)
	default:
		return 1
	}
}

// Plan is the ordered task queue plus the fixed total for the run
type Plan struct {
	Tasks []Task
	Total int
}

// Total is 3 + categories + services + areas
func Total(in Input) int {
	return CorePageCount + len(in.Categories) + len(in.Services) + len(in.Areas)
}

// Build lays out tasks in execution order: core, categories, service batches, area batches
func Build(in Input) Plan {
	sb := in.ServiceBatch
	if sb <= 0 {
		sb = DefaultServiceBatch
	}
	ab := in.AreaBatch
	if ab <= 0 {
		ab = DefaultAreaBatch
	}

	tasks := make([]Task, 0, CorePageCount+len(in.Categories)+len(in.Services)/sb+len(in.Areas)/ab+2)
	taken := make(slugSet, CorePageCount+len(in.Categories))

	for _, p := range CorePages {
		taken.claim(string(p))
		tasks = append(tasks, Task{
			Kind:  KindCorePage,
			Key:   "core:" + string(p),
			Slug:  string(p),
			Label: fmt.Sprintf("Generating %s page", p),
			Page:  p,
		})
	}

	for i := range in.Categories {
		c := in.Categories[i]
		tasks = append(tasks, Task{
			Kind:     KindCategoryPage,
			Key:      "category:" + c.ID,
			Slug:     taken.category(c),
			Label:    fmt.Sprintf("Generating %s page", c.Name),
			Category: &c,
		})
	}

	for _, g := range groupServices(in.Categories, in.Services) {
		for i, chunk := range chunk(g.services, sb) {
			lo := i*sb + 1
			tasks = append(tasks, Task{
				Kind:     KindServicePage,
				Key:      fmt.Sprintf("services:%s:%d", g.key, i),
				Label:    fmt.Sprintf("Generating %s services (%d-%d of %d)", g.name, lo, lo+len(chunk)-1, len(g.services)),
				Category: g.category,
				Services: chunk,
			})
		}
	}

	for i, chunk := range chunk(in.Areas, ab) {
		lo := i*ab + 1
		tasks = append(tasks, Task{
			Kind:  KindAreaPage,
			Key:   fmt.Sprintf("areas:%d", i),
			Label: fmt.Sprintf("Generating service areas (%d-%d of %d)", lo, lo+len(chunk)-1, len(in.Areas)),
			Areas: chunk,
		})
	}

	return Plan{Tasks: tasks, Total: Total(in)}
}

// slugSet hands out page slugs that are unique within one plan
type slugSet map[string]struct{}

func (s slugSet) claim(slug string) { s[slug] = struct{}{} }

// category slugs fall back to the id when the name folds to nothing and
// take a numeric suffix when a core page or earlier category already holds it
func (s slugSet) category(c Category) string {
	base := Slugify(c.Name)
	if base == "" {
		base = "category"
		if id := Slugify(c.ID); id != "" {
			base += "-" + id
		}
	}
	slug := base
	for n := 2; ; n++ {
		if _, ok := s[slug]; !ok {
			break
		}
		slug = base + "-" + strconv.Itoa(n)
	}
	s.claim(slug)
	return slug
}

type serviceGroup struct {
	key      string
	name     string
	category *Category
	services []Service
}

// groupServices keeps category order; services pointing at an unknown category
// trail in first-seen order so every service still lands in exactly one batch
func groupServices(cats []Category, svcs []Service) []serviceGroup {
	byID := make(map[string]int, len(cats))
	groups := make([]serviceGroup, 0, len(cats))
	for i := range cats {
		c := cats[i]
		byID[c.ID] = len(groups)
		groups = append(groups, serviceGroup{key: c.ID, name: c.Name, category: &c})
	}
	for _, s := range svcs {
		idx, ok := byID[s.CategoryID]
		if !ok {
			idx = len(groups)
			byID[s.CategoryID] = idx
			groups = append(groups, serviceGroup{key: "orphan:" + s.CategoryID, name: "other"})
		}
		groups[idx].services = append(groups[idx].services, s)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.services) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func chunk[T any](in []T, size int) [][]T {
	if len(in) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(in)+size-1)/size)
	for lo := 0; lo < len(in); lo += size {
		hi := min(lo+size, len(in))
		out = append(out, in[lo:hi:hi])
	}
	return out
}
