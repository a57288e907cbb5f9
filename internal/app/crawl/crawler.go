package crawl

import (
	"context"
	"time"
)

const ServiceName = "crsel-crawl"

type Result struct {
	URL       string    `json:"url"`
	Success   bool      `json:"success"`
	Data      *Data     `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	CrawledAt time.Time `json:"crawledAt"`
}

type Data struct {
	RequestedURL      string  `json:"requestedUrl"`
	RequestedSelector *string `json:"requestedSelector"`
	Message           string  `json:"message"`
}

type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Fetcher retrieves content for a URL, optionally narrowed by a selector.
type Fetcher interface {
	Crawl(ctx context.Context, url, selector string) Result
	Status() Status
}

// EchoFetcher returns the request metadata without fetching anything.
type EchoFetcher struct {
	now func() time.Time
}

func NewEchoFetcher() *EchoFetcher {
	return &EchoFetcher{now: time.Now}
}

func (e *EchoFetcher) Crawl(ctx context.Context, url, selector string) Result {
	res := Result{URL: url, CrawledAt: e.now().UTC()}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	var sel *string
	if selector != "" {
		sel = &selector
	}
	res.Success = true
	res.Data = &Data{
		RequestedURL:      url,
		RequestedSelector: sel,
		Message:           "content retrieval is not implemented",
	}
	return res
}

func (e *EchoFetcher) Status() Status {
	return Status{Status: "ok", Service: ServiceName}
}
