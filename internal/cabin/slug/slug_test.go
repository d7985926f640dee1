package slug

import "testing"

func TestGenerate(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "My Cabin", "my-cabin"},
		{"already lowercase", "fjellhytta", "fjellhytta"},
		{"surrounding whitespace", "  Lake   House  ", "lake-house"},
		{"punctuation stripped", "Cabin #5!", "cabin-5"},
		{"digits kept", "Hytte 42", "hytte-42"},
		{"existing hyphens kept", "south-shore cabin", "south-shore-cabin"},
		{"hyphen runs collapsed", "a -- b", "a-b"},
		{"leading and trailing hyphens trimmed", "-edge case-", "edge-case"},
		{"non ascii dropped", "Åsgård Hytte", "sgrd-hytte"},
		{"only symbols", "!!!", ""},
		{"only hyphens", "---", ""},
		{"empty", "", ""},
		{"tabs and newlines", "north\tshore\ncabin", "north-shore-cabin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Generate(tc.input); got != tc.want {
				t.Errorf("Generate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	inputs := []string{"My Cabin", "Cabin #5!", "  Lake   House  "}
	for _, input := range inputs {
		once := Generate(input)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(Generate(%q)) = %q, want %q", input, twice, once)
		}
	}
}
