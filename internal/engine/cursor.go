package engine

// PageCursor tracks how far into a server collection the client has
// paged. It is not safe for concurrent use; the owning engine
// serializes access under its own lock.
type PageCursor struct {
	offset      int
	pageSize    int
	hasMore     bool
	loadingMore bool
}

func NewPageCursor(pageSize int) *PageCursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PageCursor{pageSize: pageSize, hasMore: true}
}

// Reset returns the cursor to the top of the collection
func (p *PageCursor) Reset() {
	p.offset = 0
	p.hasMore = true
	p.loadingMore = false
}

// RecordPage advances the cursor past a page of returnedCount items.
// A short page means the server has nothing further.
func (p *PageCursor) RecordPage(returnedCount int) {
	p.offset += returnedCount
	p.hasMore = returnedCount >= p.pageSize
}

// BeginLoadMore marks a page fetch in flight. It reports false when a
// fetch is already running or the server is exhausted; the caller must
// skip the fetch entirely in that case.
func (p *PageCursor) BeginLoadMore() bool {
	if p.loadingMore || !p.hasMore {
		return false
	}
	p.loadingMore = true
	return true
}

// EndLoadMore clears the in-flight mark regardless of outcome
func (p *PageCursor) EndLoadMore() {
	p.loadingMore = false
}

func (p *PageCursor) Offset() int       { return p.offset }
func (p *PageCursor) PageSize() int     { return p.pageSize }
func (p *PageCursor) HasMore() bool     { return p.hasMore }
func (p *PageCursor) LoadingMore() bool { return p.loadingMore }
