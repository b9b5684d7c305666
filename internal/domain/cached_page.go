package domain

// CachedPage is a previously fetched page with its HTTP validators.
type CachedPage struct {
	ETag         string
	LastModified string
	Body         string
}

// HasValidators reports whether a conditional request can be made.
func (p CachedPage) HasValidators() bool {
	return p.ETag != "" || p.LastModified != ""
}
