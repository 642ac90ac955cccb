// Package ingest defines core types shared across the pipeline subsystems.
package ingest

import (
	"net/http"
	"time"
)

// ApplyType describes how a discovered link expects candidates to apply.
type ApplyType string

// Apply types tagged onto collected job links.
const (
	ApplyEasy     ApplyType = "easy_apply"
	ApplyExternal ApplyType = "external"
	ApplyDirect   ApplyType = "apply"
	ApplyUnknown  ApplyType = "unknown"
)

// JobLink is a candidate posting URL discovered during collection. It is
// ephemeral: produced per page, consumed by the orchestrator, never persisted.
type JobLink struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	IsNew     bool      `json:"is_new"`
	IsTechJob bool      `json:"is_tech_job"`
	Apply     ApplyType `json:"apply_type"`
}

// Experience levels accepted on a JobPosting.
const (
	ExperienceInternship = "Internship"
	ExperienceEntry      = "Entry Level"
	ExperienceJunior     = "Junior"
	ExperienceMid        = "Mid Level"
	ExperienceSenior     = "Senior"
	ExperienceLead       = "Lead"
	ExperienceManager    = "Manager"
)

// JobPosting is the structured record produced by a successful extraction.
// Every optional field holds its documented default rather than a null
// sentinel by the time the record reaches a JobStore. List fields are
// comma-joined strings.
type JobPosting struct {
	Title              string `json:"title"`
	CompanyName        string `json:"company_name"`
	Location           string `json:"location"`
	Description        string `json:"description"`
	ExperienceLevel    string `json:"experience_level"`
	Salary             int    `json:"salary"`
	SalaryMax          int    `json:"salary_max"`
	HoursPerWeek       int    `json:"hours_per_week"`
	H1BVisaSponsorship bool   `json:"h1b_visa_sponsorship"`
	IsRemote           bool   `json:"is_remote"`
	Relocation         bool   `json:"relocation"`
	Skills             string `json:"skills"`
	Tags               string `json:"tags"`
	Benefits           string `json:"benefits"`
	Logo               string `json:"logo"`
}

// Company is the persistence-owned record keyed by name. The pipeline only
// looks companies up and creates them on first encounter; metadata stays
// empty until somebody fills it in.
type Company struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Size        string `json:"size,omitempty"`
	StockSymbol string `json:"stock_symbol,omitempty"`
	Founded     string `json:"founded,omitempty"`
}

// SourceKind distinguishes how a source paginates and which selectors apply.
type SourceKind string

// Supported source kinds.
const (
	SourceCareerPage     SourceKind = "career_page"
	SourceBoard          SourceKind = "board"
	SourceLinkedInSearch SourceKind = "linkedin_search"
)

// Source is one configured crawl target: a company career page, an ATS
// board, or a LinkedIn search keyed by a job title.
type Source struct {
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Kind        SourceKind `json:"kind"`
	CompanyName string     `json:"company_name,omitempty"`
}

// DuplicateGroup is one cluster of stored postings considered duplicates.
// IDs are ordered oldest first; the dedup pass keeps IDs[0].
type DuplicateGroup struct {
	Key string
	IDs []int64
}

// FetchRequest captures everything needed to fetch a page.
type FetchRequest struct {
	URL         string
	Headers     http.Header
	UseHeadless bool
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	FinalURL     string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
