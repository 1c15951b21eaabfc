package nytimes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	c "github.com/GabrielFrota/NewsPrice/service/api"
)

// public
const (
	HostDefault           = "api.nytimes.com"
	DefaultPagesPerWindow = 2
	PageSize              = 10
)

// private
const (
	searchPath = "/svc/search/v2/articlesearch.json"
	dateFormat = "20060102"

	// api request elements
	apiKey    = "api-key"
	q         = "q"
	beginDate = "begin_date"
	endDate   = "end_date"
	sort      = "sort"
	page      = "page"

	sortRelevance = "relevance"
)

// Article is one search hit reduced to what sentiment classification needs
type Article struct {
	PublishedOn time.Time
	Abstract    string
	WebURL      string
}

// Window is an inclusive range of calendar days searched as one unit
type Window struct {
	From time.Time
	To   time.Time
}

type NYTimesClient struct {
	*c.Client
	pagesPerWindow int
}

type searchResponse struct {
	Status   string `json:"status"`
	Response struct {
		Docs []struct {
			Abstract string `json:"abstract"`
			WebURL   string `json:"web_url"`
			PubDate  string `json:"pub_date"`
		} `json:"docs"`
	} `json:"response"`
}

func GetClient(opts c.ClientOptions, apiKey string, pagesPerWindow int) *NYTimesClient {
	if opts.Host == "" {
		opts.Host = HostDefault
	}
	if opts.Name == "" {
		opts.Name = "nytimes"
	}
	if pagesPerWindow <= 0 {
		pagesPerWindow = DefaultPagesPerWindow
	}

	return &NYTimesClient{
		Client:         c.ClientFactory(opts, apiKey),
		pagesPerWindow: pagesPerWindow,
	}
}

// SearchArticles searches each calendar month window of [from, to] by relevance, a few pages per window.
// Articles without an abstract are dropped, an article found in several pages is kept once.
func (nyt *NYTimesClient) SearchArticles(ctx context.Context, query string, from, to time.Time) ([]Article, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("error searching articles, query is empty")
	}

	windows, err := MonthlyWindows(from, to)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	res := make([]Article, 0, len(windows)*nyt.pagesPerWindow*PageSize)

	for _, w := range windows {
		for p := range nyt.pagesPerWindow {
			articles, docs, err := nyt.searchPage(ctx, query, w, p)
			if err != nil {
				return nil, fmt.Errorf("error searching %q between %s and %s (page %d): %w", query, ex.FmtShort(w.From), ex.FmtShort(w.To), p, err)
			}

			for _, a := range articles {
				if _, ok := seen[a.WebURL]; ok && a.WebURL != "" {
					continue
				}
				seen[a.WebURL] = struct{}{}
				res = append(res, a)
			}

			// a short page means the window is exhausted
			if docs < PageSize {
				break
			}
		}
	}

	log.Debug().Str("query", query).Int("windows", len(windows)).Int("articles", len(res)).Msg("article search finished")
	return res, nil
}

// searchPage also returns how many docs the page held before empty abstracts were dropped
func (nyt *NYTimesClient) searchPage(ctx context.Context, query string, w Window, p int) ([]Article, int, error) {
	endpoint := nyt.buildRequestPath(map[string]string{
		q:         query,
		beginDate: w.From.Format(dateFormat),
		endDate:   w.To.Format(dateFormat),
		sort:      sortRelevance,
		page:      strconv.Itoa(p),
	})

	response, err := nyt.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, 0, err
	}

	defer response.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(response.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("error unmarshaling search response: %w", err)
	}

	if sr.Status != "" && !ex.AreEqual(sr.Status, "OK") {
		return nil, 0, fmt.Errorf("article search returned status %s", sr.Status)
	}

	res := make([]Article, 0, len(sr.Response.Docs))
	for _, d := range sr.Response.Docs {
		abstract := strings.TrimSpace(d.Abstract)
		if abstract == "" {
			continue
		}

		datePart, _, _ := strings.Cut(d.PubDate, "T")
		publishedOn, err := ex.ParseShort(datePart)
		if err != nil {
			return nil, 0, fmt.Errorf("error parsing pub_date of %s: %w", d.WebURL, err)
		}

		res = append(res, Article{
			PublishedOn: publishedOn,
			Abstract:    abstract,
			WebURL:      d.WebURL,
		})
	}

	return res, len(sr.Response.Docs), nil
}

func (nyt *NYTimesClient) buildRequestPath(params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = searchPath

	query := endpoint.Query()
	query.Set(apiKey, nyt.Client.ApiKey)

	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

// MonthlyWindows splits [from, to] on calendar month boundaries
func MonthlyWindows(from, to time.Time) ([]Window, error) {
	from, to = ex.ToDate(from), ex.ToDate(to)
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("error building search windows, both ends of the range are required")
	}
	if to.Before(from) {
		return nil, fmt.Errorf("error building search windows, %s is after %s", ex.FmtShort(from), ex.FmtShort(to))
	}

	var res []Window
	for start := from; !start.After(to); {
		monthEnd := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		end := monthEnd
		if to.Before(end) {
			end = to
		}

		res = append(res, Window{From: start, To: end})
		start = end.AddDate(0, 0, 1)
	}

	return res, nil
}
