package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"taskmanager/internal/cache"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/repo"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListParams is a list request after input validation. Nil pointers mean the
// filter was not supplied.
type ListParams struct {
	Status   *dom.Status
	Priority *dom.Priority
	Search   *string
	SortBy   repo.SortField
	Order    repo.SortOrder
	Page     int
	PageSize int
}

type Pagination struct {
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// Page is one window of an owner's tasks plus the size of the whole result.
type Page struct {
	Items      []dom.Task
	Pagination Pagination
}

// TaskQueryEngine turns list requests into owner-scoped store queries.
type TaskQueryEngine struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
	log   logrus.FieldLogger
}

// NewTaskQueryEngine creates a TaskQueryEngine. If c is nil, caching is disabled.
func NewTaskQueryEngine(r repo.TaskRepo, c *cache.TaskCache, log logrus.FieldLogger) *TaskQueryEngine {
	return &TaskQueryEngine{repo: r, cache: c, log: log}
}

// List returns the requested page of the owner's tasks.
func (e *TaskQueryEngine) List(ctx context.Context, ownerID string, p ListParams) (Page, error) {
	if ownerID == "" {
		return Page{}, dom.NewValidationError("owner", "owner is required")
	}
	p = p.normalize()

	if e.cache == nil {
		return e.query(ctx, ownerID, p)
	}
	// The generation is read before the store so a page built from data older
	// than a concurrent mutation lands under a generation nobody reads again.
	gen, err := e.cache.Generation(ctx, ownerID)
	if err != nil {
		e.log.WithError(err).Warn("task list cache generation read failed")
		return e.query(ctx, ownerID, p)
	}
	key := p.cacheKey()
	flight := ownerID + "|" + strconv.FormatInt(gen, 10) + "|" + key
	v, err, _ := e.sf.Do(flight, func() (interface{}, error) {
		var cached Page
		hit, err := e.cache.Get(ctx, ownerID, gen, key, &cached)
		if err != nil {
			e.log.WithError(err).Warn("task list cache read failed")
		}
		if hit {
			return cached, nil
		}
		page, err := e.query(ctx, ownerID, p)
		if err != nil {
			return nil, err
		}
		if err := e.cache.Set(ctx, ownerID, gen, key, page); err != nil {
			e.log.WithError(err).Warn("task list cache write failed")
		}
		return page, nil
	})
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

func (e *TaskQueryEngine) query(ctx context.Context, ownerID string, p ListParams) (Page, error) {
	where := p.predicates()
	total, err := e.repo.Count(ctx, ownerID, where)
	if err != nil {
		return Page{}, &dom.StoreError{Op: "count tasks", Err: err}
	}
	totalPages := (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	out := Page{
		Items: []dom.Task{},
		Pagination: Pagination{
			Total:      total,
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalPages: int(totalPages),
		},
	}
	// Past the last page the offset is not computed at all; (Page-1)*PageSize
	// can overflow for huge page numbers.
	if int64(p.Page) > totalPages {
		return out, nil
	}
	items, err := e.repo.Find(ctx, repo.Query{
		OwnerID: ownerID,
		Where:   where,
		Sort:    repo.Sort{Field: p.SortBy, Order: p.Order},
		Limit:   p.PageSize,
		Offset:  (p.Page - 1) * p.PageSize,
	})
	if err != nil {
		return Page{}, &dom.StoreError{Op: "find tasks", Err: err}
	}
	out.Items = items
	return out, nil
}

// normalize applies defaults and clamps out-of-range paging values.
func (p ListParams) normalize() ListParams {
	if p.SortBy == "" {
		p.SortBy = repo.SortCreatedAt
	}
	if p.Order == "" {
		p.Order = repo.Desc
	}
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Search != nil {
		s := strings.TrimSpace(*p.Search)
		if s == "" {
			p.Search = nil
		} else {
			p.Search = &s
		}
	}
	return p
}

func (p ListParams) predicates() []repo.Predicate {
	var where []repo.Predicate
	if p.Status != nil {
		where = append(where, repo.StatusIs{Status: *p.Status})
	}
	if p.Priority != nil {
		where = append(where, repo.PriorityIs{Priority: *p.Priority})
	}
	if p.Search != nil {
		where = append(where, repo.TextMatch{Term: *p.Search})
	}
	return where
}

// cacheKey is a canonical encoding of normalized params.
func (p ListParams) cacheKey() string {
	v := url.Values{}
	if p.Status != nil {
		v.Set("status", string(*p.Status))
	}
	if p.Priority != nil {
		v.Set("priority", string(*p.Priority))
	}
	if p.Search != nil {
		v.Set("search", strings.ToLower(*p.Search))
	}
	v.Set("sortBy", string(p.SortBy))
	v.Set("order", string(p.Order))
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.PageSize))
	return v.Encode()
}
