package engine

// rowQuota counts the rows one result emits and enforces a maximum.
//
// Each Result has its own rowQuota. A limit of zero or less disables the
// check. The quota stops runaway results, typically an unbounded
// variable-length pattern over a dense graph, before they exhaust memory
// in Cache or Rows.
type rowQuota struct {
	queryID string
	limit   int
	current int
}

func newRowQuota(queryID string, limit int) *rowQuota {
	return &rowQuota{queryID: queryID, limit: limit}
}

// check increments the row counter and validates it against the limit.
func (q *rowQuota) check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &RowsExceededError{QueryID: q.queryID, Rows: q.current, Limit: q.limit}
	}
	return nil
}
