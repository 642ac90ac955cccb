package urlnorm

import "testing"

func TestCanonicalBoardHostVariants(t *testing.T) {
	t.Parallel()

	want := Canonical("https://boards.greenhouse.io/acme/jobs/123")
	variants := []string{
		"https://job-boards.greenhouse.io/acme/jobs/123",
		"https://www.boards.greenhouse.io/acme/jobs/123",
		"https://BOARDS.greenhouse.io/acme/jobs/123/",
	}
	for _, v := range variants {
		if got := Canonical(v); got != want {
			t.Fatalf("Canonical(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips www", in: "https://www.acme.com/careers", want: "https://acme.com/careers"},
		{name: "drops fragment", in: "https://acme.com/careers#apply", want: "https://acme.com/careers"},
		{name: "lowercases host only", in: "https://Acme.COM/Careers/Senior", want: "https://acme.com/Careers/Senior"},
		{name: "keeps query", in: "https://acme.com/jobs?page=2", want: "https://acme.com/jobs?page=2"},
		{name: "unparsable fails open", in: "http://bad host/%zz", want: "http://bad host/%zz"},
		{name: "schemeless fails open", in: "not a url", want: "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.in); got != tt.want {
				t.Fatalf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	t.Parallel()

	if !SameHost("https://www.acme.com/a", "https://acme.com/b") {
		t.Fatal("www prefix should not split hosts")
	}
	if SameHost("https://acme.com/a", "https://jobs.acme.com/a") {
		t.Fatal("subdomains are distinct hosts")
	}
	if SameHost("::bad::", "::bad::") {
		t.Fatal("unparsable hosts never match")
	}
}
