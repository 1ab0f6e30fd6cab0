package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/quizgate/quizgate/internal/storage"
)

// ErrNotFound is the normal negative result for an unknown attempt id.
var ErrNotFound = errors.New("result not found")

// Flat keys look like results/<id>.json with no further nesting.
var flatKeyRE = regexp.MustCompile(`^results/[0-9A-Za-z-]+\.json$`)

// Page is one page of normalized attempt summaries, newest first.
type Page struct {
	Count      int       `json:"count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Results    []Summary `json:"results"`
}

// Reader lists and looks up persisted attempts. Listing enumerates only the
// flat copies; the nested copies exist for alternate browsing and for
// records written before the flat-copy convention.
type Reader struct {
	blobs   storage.BlobStore
	timeout time.Duration
}

func NewReader(blobs storage.BlobStore, timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Reader{blobs: blobs, timeout: timeout}
}

// List fetches one consistent snapshot (keys first, then each record),
// normalizes, filters by since, sorts received_at descending, and paginates.
// Pagination is 1-indexed: page clamps to [1,total_pages], pageSize to
// [1,100], total_pages = max(1, ceil(count/page_size)).
func (r *Reader) List(ctx context.Context, since *time.Time, page, pageSize int) (Page, error) {
	if r.blobs == nil {
		return Page{}, errors.New("blob store not configured")
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page < 1 {
		page = 1
	}

	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	keys, err := r.blobs.List(lctx, keyPrefix)
	if err != nil {
		return Page{}, fmt.Errorf("list results: %w", err)
	}

	var summaries []Summary
	for _, key := range keys {
		if !flatKeyRE.MatchString(key) {
			continue
		}
		entry, err := r.fetch(lctx, key)
		if err != nil {
			// skip unreadable records rather than failing the whole listing
			log.Printf("results: read %s failed: %v", key, err)
			continue
		}
		summaries = append(summaries, Normalize(entry))
	}

	if since != nil {
		kept := summaries[:0]
		for _, s := range summaries {
			if t, ok := s.ReceivedTime(); ok && !t.Before(*since) {
				kept = append(kept, s)
			}
		}
		summaries = kept
	}

	// Newest first. Stable sort over the sorted key listing keeps ties in
	// one order across repeated calls against the same snapshot.
	sort.SliceStable(summaries, func(i, j int) bool {
		ti, _ := summaries[i].ReceivedTime()
		tj, _ := summaries[j].ReceivedTime()
		return ti.After(tj)
	})

	count := len(summaries)
	totalPages := (count + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > count {
		start = count
	}
	if end > count {
		end = count
	}

	return Page{
		Count:      count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Results:    summaries[start:end],
	}, nil
}

// Get returns the full stored record for one attempt id. The flat path wins;
// nested copies are searched for records that predate the flat convention.
func (r *Reader) Get(ctx context.Context, id string) (map[string]any, error) {
	if r.blobs == nil {
		return nil, errors.New("blob store not configured")
	}
	gctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entry, err := r.fetch(gctx, keyPrefix+id+".json")
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	keys, err := r.blobs.List(gctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	for _, key := range keys {
		if strings.HasSuffix(key, "/"+id+".json") {
			return r.fetch(gctx, key)
		}
	}
	return nil, ErrNotFound
}

// fetch reads one record straight from the store. The store interface has no
// caching layer in between: an admin must see an attempt immediately after
// it is written.
func (r *Reader) fetch(ctx context.Context, key string) (map[string]any, error) {
	rc, err := r.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var entry map[string]any
	if err := json.NewDecoder(rc).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return entry, nil
}
