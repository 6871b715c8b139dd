package procedure

import (
	"context"

	"github.com/satchel-kb/satchel/internal/entry"
)

// ListAllEntries drains a paged listing procedure, following next_page
// until the server reports the last page, and returns one flattened page
// in fetch order.
func (c *Client) ListAllEntries(ctx context.Context, name string, payload map[string]any) (entry.Page, error) {
	var pages []entry.Page
	page := 1
	for {
		req := map[string]any{"page": page}
		for k, v := range payload {
			req[k] = v
		}

		var p entry.Page
		if err := c.Query(ctx, name, req, &p); err != nil {
			return entry.Page{}, err
		}
		pages = append(pages, p)

		if p.NextPage == nil || *p.NextPage <= page {
			break
		}
		page = *p.NextPage
	}

	last := pages[len(pages)-1]
	return entry.Page{
		Entries:    entry.Flatten(pages),
		TotalPages: last.TotalPages,
		TotalCount: last.TotalCount,
	}, nil
}
