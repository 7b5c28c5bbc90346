package service

import (
	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/services/build/domain"
)

// skeletonIndex maps planner ids back to stored records
type skeletonIndex struct {
	categories map[string]domain.Category
	services   map[string]domain.Service
	areas      map[string]domain.ServiceArea
}

func indexSkeleton(sk domain.Skeleton) skeletonIndex {
	idx := skeletonIndex{
		categories: make(map[string]domain.Category, len(sk.Categories)),
		services:   make(map[string]domain.Service, len(sk.Services)),
		areas:      make(map[string]domain.ServiceArea, len(sk.Areas)),
	}
	for _, c := range sk.Categories {
		idx.categories[c.ID.String()] = c
	}
	for _, s := range sk.Services {
		idx.services[s.ID.String()] = s
	}
	for _, a := range sk.Areas {
		idx.areas[a.ID.String()] = a
	}
	return idx
}

// businessOf is the site-wide prompt context
func businessOf(sk domain.Skeleton) domain.Business {
	b := domain.Business{Name: sk.Site.BusinessName, Phone: sk.Site.Phone}
	if c, ok := sk.PrimaryCategory(); ok {
		b.PrimaryCategory = c.Name
		b.GBPCategory = c.GBPCategory
	}
	if l, ok := sk.PrimaryLocation(); ok {
		b.City, b.State = l.City, l.State
		if b.Phone == "" {
			b.Phone = l.Phone
		}
	}
	for _, c := range sk.Categories {
		b.Categories = append(b.Categories, c.Name)
	}
	for _, a := range sk.Areas {
		b.Areas = append(b.Areas, a.Label())
	}
	return b
}

func requestFor(task planner.Task, biz domain.Business, idx skeletonIndex, reviews *domain.ReviewSummary) domain.GenerateRequest {
	req := domain.GenerateRequest{
		Kind:     task.Kind,
		Page:     task.Page,
		Business: biz,
		Reviews:  reviews,
	}
	if task.Category != nil {
		if c, ok := idx.categories[task.Category.ID]; ok {
			req.Category = &c
		}
	}
	for _, s := range task.Services {
		req.Services = append(req.Services, idx.services[s.ID])
	}
	for _, a := range task.Areas {
		req.Areas = append(req.Areas, idx.areas[a.ID])
	}
	return req
}
