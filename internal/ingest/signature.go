package ingest

import (
	"fmt"
	"strings"

	"github.com/jobsift/jobsift/internal/hash/sha256"
)

var hasher = sha256.New()

// PostingSignature computes the dedup signature for a stored posting: two
// postings with the same title, company, location and salary are considered
// the same opening regardless of which link surfaced them.
func PostingSignature(title, company, location string, salary int) string {
	key := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(title),
		strings.TrimSpace(company),
		strings.TrimSpace(location),
		fmt.Sprintf("%d", salary),
	}, "|"))
	return hasher.Hash([]byte(key))
}
