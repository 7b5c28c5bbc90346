package llm

import (
	"fmt"
	"strings"

	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/services/build/domain"
)

const systemPrompt = `You write website copy for local service businesses.
Reply with a single JSON object and nothing else. Use only the keys requested.
Write in a friendly, trustworthy tone. Never invent licenses, prices or awards.`

const pageShape = `{"meta_title":"","meta_description":"","h1":"","h2":"","hero_description":"","body_copy":"","body_copy_2":""}`

const detailShape = `{"items":[{"id":"<id from the list>","meta_title":"","meta_description":"","h1":"","intro_copy":"","problems":["","",""],"detailed_sections":[{"heading":"","body":""},{"heading":"","body":""},{"heading":"","body":""}],"faqs":[{"question":"","answer":""}]}]}`

// buildPrompt renders the user message for a request
func buildPrompt(req domain.GenerateRequest) string {
	var b strings.Builder
	biz := req.Business

	fmt.Fprintf(&b, "Business: %s\n", biz.Name)
	if biz.PrimaryCategory != "" {
		fmt.Fprintf(&b, "Primary category: %s", biz.PrimaryCategory)
		if biz.GBPCategory != "" {
			fmt.Fprintf(&b, " (%s)", biz.GBPCategory)
		}
		b.WriteByte('\n')
	}
	if biz.City != "" {
		fmt.Fprintf(&b, "Based in: %s, %s\n", biz.City, biz.State)
	}
	if biz.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", biz.Phone)
	}
	if len(biz.Categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(biz.Categories, ", "))
	}
	if len(biz.Areas) > 0 {
		fmt.Fprintf(&b, "Serves: %s\n", strings.Join(biz.Areas, "; "))
	}
	if r := req.Reviews; r != nil && r.TotalCount > 0 {
		fmt.Fprintf(&b, "Customer rating: %.1f from %d reviews\n", r.AverageRating, r.TotalCount)
		for i, rv := range r.Reviews {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- %q (%d stars)\n", truncate(rv.Text, 280), rv.Rating)
		}
	}
	b.WriteByte('\n')

	switch req.Kind {
	case planner.KindCorePage:
		fmt.Fprintf(&b, "Write the %s page.\n", req.Page)
		b.WriteString("Return JSON exactly shaped like: " + pageShape)
	case planner.KindCategoryPage:
		name := ""
		if req.Category != nil {
			name = req.Category.Name
		}
		fmt.Fprintf(&b, "Write the landing page for the %q category.\n", name)
		b.WriteString("Return JSON exactly shaped like: " + pageShape)
	case planner.KindServicePage:
		b.WriteString("Write one page per service below. 3 problems, 3 detailed sections and 3 to 5 FAQs each.\n")
		for _, s := range req.Services {
			fmt.Fprintf(&b, "- id=%s name=%q", s.ID, s.Name)
			if s.Description != "" {
				fmt.Fprintf(&b, " notes=%q", truncate(s.Description, 400))
			}
			b.WriteByte('\n')
		}
		b.WriteString("Return JSON exactly shaped like: " + detailShape)
	case planner.KindAreaPage:
		b.WriteString("Write one page per service area below, about the business serving that city. 3 problems, 3 detailed sections and 3 to 5 FAQs each.\n")
		for _, a := range req.Areas {
			fmt.Fprintf(&b, "- id=%s city=%q\n", a.ID, a.Label())
		}
		b.WriteString("Return JSON exactly shaped like: " + detailShape)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
