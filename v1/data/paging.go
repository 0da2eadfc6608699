package data

// TotalNotComputed is the sentinel Total value of a DataPage whose caller
// did not request a total count. It distinguishes "zero matches" from
// "count not requested".
const TotalNotComputed int64 = -1

// PagingParams describes the slice of a result set a caller wants.
//
// A nil *PagingParams is valid everywhere one is accepted and means
// "first page, default size, no total count".
type PagingParams struct {
	// Skip is the number of matching rows to skip before the page starts.
	// Negative values mean "not set": no offset is applied.
	Skip int64

	// Take is the maximum number of rows in the page. Values at or below
	// zero fall back to the store's configured maximum page size.
	Take int64

	// Total requests that the overall number of matching rows be counted
	// and returned alongside the page.
	Total bool
}

// NewPagingParams builds paging parameters from explicit values.
func NewPagingParams(skip, take int64, total bool) *PagingParams {
	return &PagingParams{Skip: skip, Take: take, Total: total}
}

// Offset returns the number of rows to skip, clamped below at min.
// A nil receiver yields min.
func (p *PagingParams) Offset(min int64) int64 {
	if p == nil || p.Skip < min {
		return min
	}
	return p.Skip
}

// Limit returns the page size, clamped above at max. A nil receiver or a
// non-positive Take yields max.
func (p *PagingParams) Limit(max int64) int64 {
	if p == nil || p.Take <= 0 || p.Take > max {
		return max
	}
	return p.Take
}

// HasTotal reports whether the caller asked for the total match count.
func (p *PagingParams) HasTotal() bool {
	return p != nil && p.Total
}

// DataPage is one page of records plus an optional total match count.
type DataPage[T any] struct {
	// Data holds the page's records in query order.
	Data []T

	// Total is the overall number of rows matching the query, independent
	// of paging, or TotalNotComputed when the caller did not request it.
	Total int64
}

// NewDataPage builds a page from records and a total count. Pass
// TotalNotComputed when no count was taken.
func NewDataPage[T any](records []T, total int64) *DataPage[T] {
	return &DataPage[T]{Data: records, Total: total}
}

// HasTotal reports whether Total holds a computed count.
func (p *DataPage[T]) HasTotal() bool {
	return p != nil && p.Total != TotalNotComputed
}
