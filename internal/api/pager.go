package api

import (
	"context"

	"github.com/fleetdash/fleetdash/internal/feed"
)

// Pager serves one ordered collection to a feed.Feed
type Pager struct {
	Client   *Client
	Resource Resource
	OrderBy  string
	Sort     Sort
}

var _ feed.Source[Record] = Pager{}

// Fetch implements feed.Source
func (p Pager) Fetch(ctx context.Context, req feed.Request) (feed.Page[Record], error) {
	page, err := p.Client.List(ctx, p.Resource, p.query(req.Offset, req.Limit))
	if err != nil {
		return feed.Page[Record]{}, err
	}
	return feed.Page[Record]{Items: page.Items, Total: page.Total}, nil
}

// Each walks the whole collection pageSize records at a time, stopping at
// the first short page or when fn returns an error.
func (p Pager) Each(ctx context.Context, pageSize int, fn func(Page) error) error {
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := 0
	for {
		page, err := p.Client.List(ctx, p.Resource, p.query(offset, pageSize))
		if err != nil {
			return err
		}
		if len(page.Items) > 0 {
			if err := fn(page); err != nil {
				return err
			}
		}
		offset += len(page.Items)
		if len(page.Items) < pageSize || (page.Total >= 0 && offset >= page.Total) {
			return nil
		}
	}
}

func (p Pager) query(offset, limit int) Query {
	return Query{Limit: limit, Offset: offset, OrderBy: p.OrderBy, Sort: p.Sort}
}
