package advisor

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"emphasis", "Hello*World", "HelloWorld"},
		{"all markers", "# Plan:\n**Save** _more_ `now` ~~later~~", "Plan:\nSave more now later"},
		{"wrapped digits", "4\n0\n0\n0", "4000"},
		{"wrapped words", "bud\nget", "budget"},
		{"paragraphs", "Para1\n\n\n\nPara2", "Para1\n\nPara2"},
		{"single blank line kept", "Para1\n\nPara2", "Para1\n\nPara2"},
		{"break after punctuation kept", "Step one.\nStep two.", "Step one.\nStep two."},
		{"break before space kept", "one\n two", "one\n two"},
		{"marker removal exposes wrap", "a*\nb", "ab"},
		{"trim", "  \n\nHello\n\n  ", "Hello"},
		{"long spaces untouched", "a    b", "a    b"},
		{"non ascii neighbours kept", "café\nau lait", "café\nau lait"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func FuzzCleanIdempotent(f *testing.F) {
	for _, seed := range []string{
		"Hello*World",
		"4\n0\n0\n0",
		"Para1\n\n\n\nPara2",
		"## Budget\n\n1. Track *every* expense\n2. Save 20%\n\n\n",
		"x\n\n\ny\nz",
		" \n_\n ",
		"a\n#\nb",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	})
}
