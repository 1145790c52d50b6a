package redis

// SetListPageSize changes the List page size and returns a restore func.
func SetListPageSize(n int64) func() {
	prev := listPageSize
	listPageSize = n
	return func() { listPageSize = prev }
}
