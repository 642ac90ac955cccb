// Package memory implements an in-memory JobStore for tests and development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/urlnorm"
)

type storedPosting struct {
	id        int64
	posting   ingest.JobPosting
	companyID int64
	link      string
	canonical string
	signature string
}

// JobStore keeps companies and postings in maps behind a mutex.
type JobStore struct {
	mu        sync.RWMutex
	nextID    int64
	companies map[int64]ingest.Company
	postings  map[int64]storedPosting
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{
		nextID:    1,
		companies: make(map[int64]ingest.Company),
		postings:  make(map[int64]storedPosting),
	}
}

// CompanyIDByName looks a company up by case-insensitive name.
func (s *JobStore) CompanyIDByName(_ context.Context, name string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, company := range s.companies {
		if strings.EqualFold(company.Name, name) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// CreateCompany inserts a company and returns its ID.
func (s *JobStore) CreateCompany(_ context.Context, company ingest.Company) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	company.ID = id
	s.companies[id] = company
	return id, nil
}

// CreateJobPosting inserts a posting and returns its ID.
func (s *JobStore) CreateJobPosting(_ context.Context, posting ingest.JobPosting, companyID int64, link string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.postings[id] = storedPosting{
		id:        id,
		posting:   posting,
		companyID: companyID,
		link:      link,
		canonical: urlnorm.Canonical(link),
		signature: ingest.PostingSignature(posting.Title, posting.CompanyName, posting.Location, posting.Salary),
	}
	return id, nil
}

// DuplicateJobPostings finds postings duplicating each other by signature or
// by canonical link, merging groups that share a posting. IDs ascending.
func (s *JobStore) DuplicateJobPostings(_ context.Context) ([]ingest.DuplicateGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySignature := make(map[string][]int64)
	byLink := make(map[string][]int64)
	for id, p := range s.postings {
		bySignature[p.signature] = append(bySignature[p.signature], id)
		byLink[p.canonical] = append(byLink[p.canonical], id)
	}

	var groups []ingest.DuplicateGroup
	for _, keyed := range []map[string][]int64{bySignature, byLink} {
		keys := make([]string, 0, len(keyed))
		for key, ids := range keyed {
			if len(ids) >= 2 {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			ids := keyed[key]
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			groups = append(groups, ingest.DuplicateGroup{Key: key, IDs: ids})
		}
	}
	return ingest.MergeDuplicateGroups(groups), nil
}

// AllCompanyJobLinks returns the canonical links of every stored posting.
func (s *JobStore) AllCompanyJobLinks(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make([]string, 0, len(s.postings))
	for _, p := range s.postings {
		links = append(links, p.canonical)
	}
	sort.Strings(links)
	return links, nil
}

// DeleteJobPostings removes the postings with the given IDs.
func (s *JobStore) DeleteJobPostings(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.postings, id)
	}
	return nil
}

// PostingCount reports how many postings are stored.
func (s *JobStore) PostingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.postings)
}

// Posting returns a stored posting by ID.
func (s *JobStore) Posting(id int64) (ingest.JobPosting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.postings[id]
	if !ok {
		return ingest.JobPosting{}, false
	}
	return p.posting, true
}

// CompanyCount reports how many companies are stored.
func (s *JobStore) CompanyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.companies)
}
