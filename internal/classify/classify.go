// Package classify implements the heuristic tech-job title classifier that
// gates expensive extraction calls.
package classify

import "strings"

// exactRoles are unambiguous tech-role phrases; a substring hit is decisive.
var exactRoles = []string{
	"software engineer",
	"software developer",
	"software architect",
	"staff engineer",
	"platform engineer",
	"infrastructure engineer",
	"data engineer",
	"data scientist",
	"data analyst",
	"machine learning engineer",
	"ml engineer",
	"ai engineer",
	"devops engineer",
	"site reliability engineer",
	"cloud engineer",
	"security engineer",
	"qa engineer",
	"test engineer",
	"full stack developer",
	"full-stack developer",
	"fullstack developer",
	"frontend developer",
	"front end developer",
	"backend developer",
	"back end developer",
	"web developer",
	"mobile developer",
	"ios developer",
	"android developer",
	"solutions architect",
	"database administrator",
	"systems administrator",
	"engineering manager",
	"tech lead",
}

// keywordCategories count toward the two-category rule. Multi-word entries
// match as substrings; single short words match whole tokens only, so
// "Auditor" never lights up the "it" category.
var keywordCategories = map[string][]string{
	"software":       {"software", "programming", "saas", "api", "apis"},
	"data":           {"data", "analytics", "machine learning", "etl", "big data", "artificial intelligence"},
	"web":            {"web", "frontend", "front end", "front-end", "backend", "back end", "back-end", "full stack", "fullstack", "full-stack"},
	"systems":        {"systems", "embedded", "firmware", "kernel", "operating systems", "low latency"},
	"network":        {"network", "networking", "wireless", "voip", "telecom"},
	"database":       {"database", "databases", "sql", "nosql", "postgres", "dba"},
	"mobile":         {"mobile", "ios", "android", "flutter", "react native"},
	"specific_roles": {"sre", "sdet", "site reliability", "quality assurance", "test automation", "penetration tester", "application security"},
	"languages":      {"java", "python", "golang", "javascript", "typescript", "c++", "c#", "rust", "ruby", "kotlin", "swift", "php", "scala", "node"},
	"game_dev":       {"game", "unity", "unreal", "gameplay"},
	"blockchain":     {"blockchain", "crypto", "web3", "solidity", "smart contract"},
	"devops":         {"devops", "ci/cd", "kubernetes", "docker", "terraform", "infrastructure", "observability"},
	"cloud":          {"cloud", "aws", "azure", "gcp", "serverless"},
	"tech":           {"technical", "technology", "tech"},
	"graphics":       {"graphics", "rendering", "computer vision", "opengl", "vulkan", "shader"},
}

// nonTechEngineering excludes engineering disciplines outside the target
// domain. Evaluated before the generic "engineer" catch-all.
var nonTechEngineering = []string{
	"civil engineer",
	"mechanical engineer",
	"chemical engineer",
	"electrical engineer",
	"meter engineer",
}

// standaloneKeywords classify a title when they appear as whole tokens.
var standaloneKeywords = map[string]bool{
	"programmer": true,
	"developer":  true,
	"coder":      true,
	"analyst":    true,
	"architect":  true,
	"admin":      true,
}

// IsTechJob decides whether a job title belongs to the software/engineering
// domain. The rules run in order; exact-role matches and the non-tech
// exclusion list must win before the generic "engineer" catch-all, otherwise
// every civil engineering posting burns an extraction call.
func IsTechJob(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return false
	}
	tokens := tokenize(lower)

	for _, role := range exactRoles {
		if strings.Contains(lower, role) {
			return true
		}
	}

	categories := 0
	for _, keywords := range keywordCategories {
		for _, kw := range keywords {
			if matches(lower, tokens, kw) {
				categories++
				break
			}
		}
	}
	if categories >= 2 {
		return true
	}

	if strings.Contains(lower, "technology") || strings.Contains(lower, "engineer") {
		excluded := false
		for _, phrase := range nonTechEngineering {
			if strings.Contains(lower, phrase) {
				excluded = true
				break
			}
		}
		if !excluded {
			return true
		}
	}

	for _, token := range tokens {
		if standaloneKeywords[token] {
			return true
		}
	}
	return false
}

// matches applies substring matching for phrases and token matching for
// single short words.
func matches(lower string, tokens []string, kw string) bool {
	if strings.ContainsAny(kw, " /+#-") || len(kw) > 4 {
		return strings.Contains(lower, kw)
	}
	for _, token := range tokens {
		if token == kw {
			return true
		}
	}
	return false
}

func tokenize(lower string) []string {
	fields := strings.Fields(lower)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.Trim(f, ".,;:()[]\"'"))
	}
	return tokens
}
