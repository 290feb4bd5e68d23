package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wanderly/wanderly/internal/adapters/mapping"
	"github.com/wanderly/wanderly/internal/core/ports"
)

// maxPages caps how many "next" links FetchUpdated follows in one call.
const maxPages = 50

var nextKeys = []string{"next", "next_page", "links.next", "paging.next"}

// FetchUpdated returns every record changed since the given instant,
// following "next" links across pages. A zero since fetches everything.
func (c *Client) FetchUpdated(ctx context.Context, since time.Time) ([][]byte, error) {
	u := c.resolve("places")
	if !since.IsZero() {
		q := u.Query()
		q.Set("updated_since", since.UTC().Format(time.RFC3339))
		u.RawQuery = q.Encode()
	}

	var out [][]byte
	target := u.String()
	for page := 0; target != "" && page < maxPages; page++ {
		body, err := c.get(ctx, target)
		if err != nil {
			return nil, err
		}
		records, err := mapping.Records(body)
		if err != nil {
			return nil, fmt.Errorf("upstream: page %d: %w", page+1, err)
		}
		out = append(out, records...)
		target = c.next(body, target)
	}
	return out, nil
}

// FetchByID returns one raw record. A 404 maps to ports.ErrNotFound.
func (c *Client) FetchByID(ctx context.Context, id string) ([]byte, error) {
	body, err := c.get(ctx, c.resolve("places", id).String())
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	records, err := mapping.Records(body)
	if err != nil {
		return nil, fmt.Errorf("upstream: place %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, ports.ErrNotFound
	}
	return records[0], nil
}

func (c *Client) resolve(segments ...string) *url.URL {
	return c.base.JoinPath(segments...)
}

// next reads a pagination link from body, resolved against the page it came from.
func (c *Client) next(body []byte, current string) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return ""
	}
	for _, key := range nextKeys {
		v := root.Get(key)
		if v.Type != gjson.String || v.Str == "" {
			continue
		}
		ref, err := url.Parse(v.Str)
		if err != nil {
			return ""
		}
		cur, err := url.Parse(current)
		if err != nil {
			return ""
		}
		resolved := cur.ResolveReference(ref).String()
		if resolved == current {
			return ""
		}
		return resolved
	}
	return ""
}
