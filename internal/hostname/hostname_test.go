package hostname

import "testing"

func TestParseSimple(t *testing.T) {
	cases := map[string]string{
		"test":  "test.localhost",
		"myapp": "myapp.localhost",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseAlreadyCanonical(t *testing.T) {
	cases := map[string]string{
		"test.localhost":    "test.localhost",
		"my-app.localhost":  "my-app.localhost",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseStripsProtocol(t *testing.T) {
	cases := map[string]string{
		"http://test":            "test.localhost",
		"https://test":           "test.localhost",
		"http://test.localhost":  "test.localhost",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseStripsPath(t *testing.T) {
	cases := map[string]string{
		"test/path":                      "test.localhost",
		"http://test/path/to/resource":   "test.localhost",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	cases := map[string]string{
		"MyApp": "myapp.localhost",
		"TEST":  "test.localhost",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseHyphensAndDots(t *testing.T) {
	cases := map[string]string{
		"my-app":      "my-app.localhost",
		"test-123":    "test-123.localhost",
		"sub.domain":  "sub.domain.localhost",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", ".localhost"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error, got none", in)
		}
	}
}

func TestParseRejectsConsecutiveDots(t *testing.T) {
	for _, in := range []string{"test..app", "..test"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error, got none", in)
		}
	}
}

func TestParseRejectsInvalidCharacters(t *testing.T) {
	for _, in := range []string{"test_app", "test@app", "test app"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error, got none", in)
		}
	}
}

func TestParseRejectsBadStartEnd(t *testing.T) {
	for _, in := range []string{"-test", "test-", ".test"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error, got none", in)
		}
	}
}

func TestParseSingleCharLabel(t *testing.T) {
	got, err := Parse("a")
	if err != nil {
		t.Fatalf("Parse(\"a\"): %v", err)
	}
	if got != "a.localhost" {
		t.Fatalf("Parse(\"a\") = %q", got)
	}

	if _, err := Parse("-"); err == nil {
		t.Fatal("Parse(\"-\"): expected error for single non-alphanumeric char")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	inputs := []string{"test", "http://My-App/path", "sub.domain.localhost", "TEST-123"}
	for _, in := range inputs {
		once, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		twice, err := Parse(once)
		if err != nil {
			t.Fatalf("Parse(Parse(%q)): %v", in, err)
		}
		if once != twice {
			t.Fatalf("Parse not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}
