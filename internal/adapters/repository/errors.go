package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNoDataset   = errors.New("no dataset loaded")
	ErrHistory     = errors.New("history store failure")
	ErrNilDataset  = errors.New("nil dataset")
	ErrHistoryOpen = errors.New("history store open failed")
)
