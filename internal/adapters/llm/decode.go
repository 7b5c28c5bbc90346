package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/platform/validate"
	"sitebuilder/internal/services/build/domain"
)

// batchEnvelope is the shape requested for service and area batches
type batchEnvelope struct {
	Items []domain.DetailCopy `json:"items" validate:"required,dive"`
}

// ExtractJSON returns the outermost JSON object in s, tolerating code fences
// and prose around it
func ExtractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	lo := strings.IndexByte(s, '{')
	hi := strings.LastIndexByte(s, '}')
	if lo < 0 || hi <= lo {
		return "", fmt.Errorf("no json object in output")
	}
	return s[lo : hi+1], nil
}

func strictDecode(raw string, dst any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after object")
	}
	return nil
}

// DecodePage parses and validates copy for a core or category page
func DecodePage(kind planner.Kind, output string) (domain.Content, error) {
	raw, err := ExtractJSON(output)
	if err != nil {
		return domain.Content{}, domain.Malformed(string(kind), err.Error())
	}
	var p domain.PageCopy
	if err := strictDecode(raw, &p); err != nil {
		return domain.Content{}, domain.Malformed(string(kind), err.Error())
	}
	if err := validate.Struct(p); err != nil {
		return domain.Content{}, domain.Malformed(string(kind), err.Error())
	}
	return domain.Content{Kind: kind, Page: &p}, nil
}

// DecodeDetails parses a batch and requires exactly one item per id, in order
func DecodeDetails(kind planner.Kind, output string, ids []string) (domain.Content, error) {
	raw, err := ExtractJSON(output)
	if err != nil {
		return domain.Content{}, domain.Malformed(string(kind), err.Error())
	}
	var env batchEnvelope
	if err := strictDecode(raw, &env); err != nil {
		return domain.Content{}, domain.Malformed(string(kind), err.Error())
	}
	if err := validate.Struct(env); err != nil {
		return domain.Content{}, domain.Malformed(string(kind), err.Error())
	}
	if len(env.Items) != len(ids) {
		return domain.Content{}, domain.Malformed(string(kind), fmt.Sprintf("got %d items, want %d", len(env.Items), len(ids)))
	}

	byID := make(map[string]domain.DetailCopy, len(env.Items))
	for _, it := range env.Items {
		byID[strings.TrimSpace(it.ID)] = it
	}
	out := make([]domain.DetailCopy, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return domain.Content{}, domain.Malformed(string(kind), "missing item "+id)
		}
		out = append(out, it)
	}
	return domain.Content{Kind: kind, Details: out}, nil
}
