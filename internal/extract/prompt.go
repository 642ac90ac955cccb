package extract

import (
	"fmt"
	"strings"

	"github.com/jobsift/jobsift/internal/ingest"
)

// promptSchema is the JSON contract the model must fill in. Salary values
// are annualized integers; experience_level is a closed enum.
const promptSchema = `{
  "title": "string, the job title",
  "company_name": "string, the hiring company",
  "location": "string, city/state/country or empty",
  "description": "string, a 2-4 sentence summary of the role",
  "experience_level": "one of: Internship, Entry level, Junior, Mid level, Senior, Lead, Manager",
  "salary": "integer, annualized lower bound in USD, 0 if unknown",
  "salary_max": "integer, annualized upper bound in USD, 0 if unknown",
  "hours_per_week": "integer, 0 if unknown",
  "h1b_visa_sponsorship": "boolean",
  "is_remote": "boolean",
  "relocation": "boolean, true if relocation assistance is offered",
  "skills": ["list of required technologies and skills"],
  "tags": ["list of short tags categorizing the role"],
  "benefits": ["list of benefits mentioned"]
}`

// BuildPrompt assembles the extraction prompt for one job page.
func BuildPrompt(link ingest.JobLink, source ingest.Source, pageText string) string {
	var b strings.Builder
	b.WriteString("You are extracting structured data from a job posting page.\n\n")
	b.WriteString("Return ONLY a JSON object matching this schema, with no prose and no markdown fences:\n")
	b.WriteString(promptSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- If the page is not a software/technology job posting, return exactly {\"skipped\": true} instead.\n")
	b.WriteString("- Convert hourly or monthly pay to an annual integer (e.g. $50/hr -> 104000).\n")
	b.WriteString("- Use empty strings, zeros and false for anything the page does not state.\n")
	if source.CompanyName != "" {
		fmt.Fprintf(&b, "- The page belongs to %s; use that as company_name unless the posting names a different hiring company.\n", source.CompanyName)
	}
	fmt.Fprintf(&b, "\nJob link: %s\n", link.URL)
	if link.Title != "" {
		fmt.Fprintf(&b, "Link title: %s\n", link.Title)
	}
	fmt.Fprintf(&b, "\nPage text:\n%s\n", pageText)
	return b.String()
}
