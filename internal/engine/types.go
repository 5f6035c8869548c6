package engine

// Seeds is a server/client seed pair for the seeded source.
type Seeds struct {
	Server string `json:"server"` // ASCII; do NOT hex-decode
	Client string `json:"client"`
}

// Empty reports whether either seed is missing.
func (s Seeds) Empty() bool {
	return s.Server == "" || s.Client == ""
}
