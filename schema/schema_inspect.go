package schema

// DatasetInfo describes a loaded dataset without rendering it.
type DatasetInfo struct {
	Path          string         `json:"path"`
	Entities      []string       `json:"entities"`
	Timestamps    int            `json:"timestamps"`
	Points        int            `json:"points"`
	Start         float64        `json:"start"`
	End           float64        `json:"end"`
	Frames        int            `json:"frames"`
	Milestones    []Milestone    `json:"milestones"`
	Gaps          []Gap          `json:"gaps"`
	Warnings      []string       `json:"warnings"`
	FinalStanding []Standing     `json:"final_standing"`
	AssetProblems []AssetProblem `json:"asset_problems,omitempty"`
}

// AssetProblem records an entity whose decoration image was rejected.
type AssetProblem struct {
	EntityID string `json:"entity_id"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
}
