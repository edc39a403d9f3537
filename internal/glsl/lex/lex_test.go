package lex

import "testing"

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no comments", "void main(){}", "void main(){}"},
		{"line comment", "a; // tail\nb;", "a; \nb;"},
		{"line comment at eof", "a; // tail", "a; "},
		{"block keeps newlines", "a;/* x\ny\nz */b;", "a;\n\nb;"},
		{"unterminated block", "a;/* x\ny", "a;\n"},
		{"division survives", "x = a / b;", "x = a / b;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripComments(tt.in); got != tt.want {
				t.Errorf("StripComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReplaceWordRespectsIdentifiers(t *testing.T) {
	src := "varying vec2 uv; my_varying x; varying_count; varying2;\nvarying float a;"
	got := ReplaceWord(src, "varying", "in")
	want := "in vec2 uv; my_varying x; varying_count; varying2;\nin float a;"
	if got != want {
		t.Fatalf("ReplaceWord = %q, want %q", got, want)
	}
}

func TestReplaceWordSkipsNumericSuffixes(t *testing.T) {
	// 1e5f is a literal, not an identifier "e5f"
	got := ReplaceWord("float x = 1e5; e5 = 2.0;", "e5", "y")
	if got != "float x = 1e5; y = 2.0;" {
		t.Fatalf("unexpected replacement: %q", got)
	}
}

func TestContainsWord(t *testing.T) {
	if !ContainsWord("gl_FragColor = c;", "gl_FragColor") {
		t.Error("expected whole word match")
	}
	if ContainsWord("_GEN_gl_FragColor_0 = c;", "gl_FragColor") {
		t.Error("matched inside a longer identifier")
	}
}

func TestLineAt(t *testing.T) {
	src := "a\nb\nc"
	if got := LineAt(src, 0); got != 1 {
		t.Errorf("LineAt(0) = %d", got)
	}
	if got := LineAt(src, 4); got != 3 {
		t.Errorf("LineAt(4) = %d", got)
	}
}
