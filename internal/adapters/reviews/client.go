// Package reviews reads location reviews from the Google Business Profile API
package reviews

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "sitebuilder/internal/platform/errors"
	"sitebuilder/internal/platform/logger"
	"sitebuilder/internal/services/build/domain"
)

const (
	baseURLDefault  = "https://mybusiness.googleapis.com/v4"
	defaultTimeout  = 15 * time.Second
	defaultPageSize = 50
	defaultMaxPages = 4
)

// Options configures the Client
type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	PageSize int

	// MaxPages bounds how many nextPageToken hops one Fetch follows
	MaxPages int
}

// Client fetches recent reviews, following pages up to MaxPages, plus the aggregate rating
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

var _ domain.Reviews = (*Client)(nil)

// NewClient returns nil without a token
func NewClient(o Options) *Client {
	if strings.TrimSpace(o.Token) == "" {
		return nil
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.PageSize <= 0 || o.PageSize > 50 {
		o.PageSize = defaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = defaultMaxPages
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("reviews"),
	}
}

type wireReview struct {
	ReviewID string `json:"reviewId"`
	Reviewer struct {
		DisplayName string `json:"displayName"`
	} `json:"reviewer"`
	StarRating string    `json:"starRating"`
	Comment    string    `json:"comment"`
	CreateTime time.Time `json:"createTime"`
}

type wireList struct {
	Reviews          []wireReview `json:"reviews"`
	AverageRating    float64      `json:"averageRating"`
	TotalReviewCount int          `json:"totalReviewCount"`
	NextPageToken    string       `json:"nextPageToken"`
}

// Fetch implements domain.Reviews
func (c *Client) Fetch(ctx context.Context, accountRef, locationRef string) (domain.ReviewSummary, error) {
	if c == nil {
		return domain.ReviewSummary{}, perr.Unavailablef("reviews: no credential configured")
	}
	accountRef = strings.TrimPrefix(strings.TrimSpace(accountRef), "accounts/")
	locationRef = strings.TrimPrefix(strings.TrimSpace(locationRef), "locations/")
	if accountRef == "" || locationRef == "" {
		return domain.ReviewSummary{}, perr.InvalidArgf("reviews: account and location refs are required")
	}

	base := c.opts.BaseURL + "/accounts/" + url.PathEscape(accountRef) + "/locations/" + url.PathEscape(locationRef) +
		"/reviews?pageSize=" + strconv.Itoa(c.opts.PageSize) + "&orderBy=" + url.QueryEscape("updateTime desc")

	var all wireList
	token := ""
	for page := 0; page < c.opts.MaxPages; page++ {
		wl, err := c.fetchPage(ctx, base, token, locationRef)
		if err != nil {
			return domain.ReviewSummary{}, err
		}
		if page == 0 {
			all.AverageRating, all.TotalReviewCount = wl.AverageRating, wl.TotalReviewCount
		}
		all.Reviews = append(all.Reviews, wl.Reviews...)
		token = wl.NextPageToken
		if token == "" {
			break
		}
	}
	if token != "" {
		c.log.Debug().Str("location", locationRef).Int("pages", c.opts.MaxPages).Msg("reviews page limit reached")
	}
	return toSummary(all), nil
}

func (c *Client) fetchPage(ctx context.Context, base, token, locationRef string) (wireList, error) {
	u := base
	if token != "" {
		u += "&pageToken=" + url.QueryEscape(token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return wireList{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "reviews new request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return wireList{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "reviews request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().Int("status", resp.StatusCode).Str("location", locationRef).Bool("paged", token != "").Msg("reviews http response")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return wireList{}, perr.NotFoundf("reviews: location %s not found", locationRef)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return wireList{}, perr.Unauthorizedf("reviews: credential rejected (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return wireList{}, perr.Unavailablef("reviews: unexpected status %d body %s", resp.StatusCode, string(tail))
	}

	var wl wireList
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&wl); err != nil {
		return wireList{}, perr.Wrapf(err, perr.ErrorCodeJSON, "reviews decode failed")
	}
	return wl, nil
}

func toSummary(wl wireList) domain.ReviewSummary {
	out := domain.ReviewSummary{
		Reviews:       make([]domain.Review, 0, len(wl.Reviews)),
		AverageRating: wl.AverageRating,
		TotalCount:    wl.TotalReviewCount,
	}
	for _, r := range wl.Reviews {
		out.Reviews = append(out.Reviews, domain.Review{
			Author:    r.Reviewer.DisplayName,
			Rating:    starValue(r.StarRating),
			Text:      strings.TrimSpace(r.Comment),
			CreatedAt: r.CreateTime.UTC(),
		})
	}
	if out.TotalCount == 0 {
		out.TotalCount = len(out.Reviews)
	}
	return out
}

func starValue(s string) int {
	switch strings.ToUpper(s) {
	case "ONE":
		return 1
	case "TWO":
		return 2
	case "THREE":
		return 3
	case "FOUR":
		return 4
	case "FIVE":
		return 5
	default:
		return 0
	}
}
