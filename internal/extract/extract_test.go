package extract

import "testing"

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "json fence",
			in:   "```json\n{\"amount\": 100}\n```",
			want: `{"amount": 100}`,
		},
		{
			name: "generic fence",
			in:   "```\n{\"amount\": 100}\n```",
			want: `{"amount": 100}`,
		},
		{
			name: "no fence",
			in:   `{"amount": 100}`,
			want: `{"amount": 100}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n{\"amount\": 100}\n  ",
			want: `{"amount": 100}`,
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCodeFences(tt.in)
			if got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripCodeFencesIdempotent(t *testing.T) {
	in := "```json\n{\"vendor\": \"Taxi Mai Linh\"}\n```"
	once := StripCodeFences(in)
	twice := StripCodeFences(once)
	if once != twice {
		t.Errorf("second pass changed output: %q -> %q", once, twice)
	}
}

func TestParseModelOutput(t *testing.T) {
	result := ParseModelOutput("```json\n{\"amount\": 350000, \"vendor\": \"Taxi Mai Linh\"}\n```")
	value, ok := result.Value()
	if !ok {
		t.Fatal("expected parse success")
	}
	if value["vendor"] != "Taxi Mai Linh" {
		t.Errorf("vendor = %v, want Taxi Mai Linh", value["vendor"])
	}
}

func TestParseModelOutputFailure(t *testing.T) {
	cases := []string{
		"",
		"I could not read this receipt.",
		"```json\nnot json at all\n```",
		"{\"unterminated\": ",
	}

	for _, raw := range cases {
		result := ParseModelOutput(raw)
		if _, ok := result.Value(); ok {
			t.Errorf("ParseModelOutput(%q) parsed, want failure", raw)
		}
	}
}

func TestParseModelOutputNonObject(t *testing.T) {
	// A bare array or scalar is not an analysis object.
	for _, raw := range []string{`[1, 2, 3]`, `"just a string"`, `42`} {
		result := ParseModelOutput(raw)
		if _, ok := result.Value(); ok {
			t.Errorf("ParseModelOutput(%q) parsed, want failure", raw)
		}
	}
}
