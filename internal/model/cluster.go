package model

// Cluster groups citations believed to be parallel references to one
// judicial opinion. Members holds indices into the run's citation
// slice, never copies: citations are owned by the run, clusters only
// point at them. Every member pair passed all clustering gates when
// the cluster was built; clusters are never split afterwards and never
// merged across documents.
type Cluster struct {
	ID      int   `json:"cluster_id"`
	Members []int `json:"citations"` // Indices into Result.Citations, in document order

	CanonicalName string `json:"canonical_name,omitempty"` // From a verified member, else best extracted
	CanonicalDate string `json:"canonical_date,omitempty"`
	Size          int    `json:"size"`
}

// Contains reports whether the cluster holds the given citation index.
func (cl *Cluster) Contains(idx int) bool {
	for _, m := range cl.Members {
		if m == idx {
			return true
		}
	}
	return false
}
