package schema

// ChunkRequest asks a generator for the rows of one span of years.
type ChunkRequest struct {
	Topic     string   `json:"topic"`
	Entities  []string `json:"entities"`
	StartYear int      `json:"start_year"`
	EndYear   int      `json:"end_year"` // inclusive
}

// Years returns the number of years covered by the request.
func (r ChunkRequest) Years() int {
	return r.EndYear - r.StartYear + 1
}

// ChunkRow is one generated year of data.
type ChunkRow struct {
	Year      int                `json:"year"`
	Values    map[string]float64 `json:"values"`
	Milestone string             `json:"milestone"`
}

// ChunkResult is the outcome of one chunk after retries.
type ChunkResult struct {
	Request  ChunkRequest `json:"request"`
	Rows     []ChunkRow   `json:"rows"`
	Attempts int          `json:"attempts"`
	Cached   bool         `json:"cached"`
	Err      error        `json:"-"`
}

// Failed reports whether the chunk must become a declared gap.
func (r ChunkResult) Failed() bool {
	return r.Err != nil
}
