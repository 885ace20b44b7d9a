package repository

// DefaultMaxHistory is the history cap when none is configured.
const DefaultMaxHistory = 10

// Option applies a configuration option to the SQLiteHistory.
type Option func(*SQLiteHistory)

// WithMaxRecords caps the number of history rows kept. Values below 1 are ignored.
func WithMaxRecords(n int) Option {
	return func(h *SQLiteHistory) {
		if n > 0 {
			h.maxRecords = n
		}
	}
}
