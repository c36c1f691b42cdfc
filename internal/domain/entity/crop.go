package entity

// CropEntry canonical crop: display label, dedup key and short id.
type CropEntry struct {
	ID    string
	Key   string
	Label string
}
