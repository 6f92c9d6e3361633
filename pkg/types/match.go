package types

// Match represents a single search result returned by the index coordinator
type Match struct {
	// ID is the content-addressed chunk identifier
	ID string

	Content  string
	Metadata map[string]string

	// Distance is the vector distance to the query; lower is more
	// similar. Results are ordered by ascending distance.
	Distance float64

	// Imports and Dependencies are merged in from the side collection
	// when the caller requests metadata joins; nil otherwise
	Imports      []string
	Dependencies []string
}

// Validate checks the match invariants
func (m *Match) Validate() error {
	if m.ID == "" {
		return ErrInvalidChunkID
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if m.Distance < 0 {
		return ErrInvalidDistance
	}
	return nil
}
