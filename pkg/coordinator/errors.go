package coordinator

import "errors"

var (
	errNilFetcher = errors.New("fetcher is required")
	errNilStore   = errors.New("settings store is required")
)
