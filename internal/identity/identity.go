// Package identity derives stable posting identifiers.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/AhmedOthman21/Tech-jobs/internal/pipeline"
)

// ForPosting returns the deterministic identifier for a posting. It hashes
// the canonical URL when one exists, otherwise source|title|company|location.
// Inputs must already be normalized; no timestamps or salts participate, so
// re-extracting the same listing always yields the same id.
func ForPosting(p pipeline.JobPosting) string {
	if u := strings.TrimSpace(p.URL); u != "" {
		return digest(u)
	}
	return digest(strings.Join([]string{p.Source, p.Title, p.Company, p.Location}, "|"))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
