package shader

import "testing"

func TestParseLanguageRoundTrip(t *testing.T) {
	for _, l := range Languages {
		got, err := ParseLanguage(l.String())
		if err != nil {
			t.Fatalf("ParseLanguage(%q): %v", l.String(), err)
		}
		if got != l {
			t.Errorf("ParseLanguage(%q) = %v", l.String(), got)
		}
	}
	if got, err := ParseLanguage("wgsl"); err != nil || got != LanguageWGSL {
		t.Errorf("lower-case name not accepted: %v, %v", got, err)
	}
	if _, err := ParseLanguage("metal"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestStageFromPath(t *testing.T) {
	tests := map[string]Stage{
		"materials/sprite.vp": StageVertex,
		"a/b.FRAG":            StageFragment,
		"c.comp":              StageCompute,
	}
	for p, want := range tests {
		got, ok := StageFromPath(p)
		if !ok || got != want {
			t.Errorf("StageFromPath(%q) = %v, %v; want %v", p, got, ok, want)
		}
	}
	if _, ok := StageFromPath("common.glsl"); ok {
		t.Error("include file must not map to a stage")
	}
}

func TestDataTypeNames(t *testing.T) {
	for name, dt := range dataTypeNames {
		if dt.String() != name {
			t.Errorf("%v.String() = %q, want %q", dt, dt.String(), name)
		}
	}
	if !DataTypeSampler2DArray.IsOpaque() || DataTypeMat4.IsOpaque() {
		t.Error("IsOpaque misclassifies")
	}
	if !DataTypeUniformBuffer.IsComposite() || DataTypeSampler.IsComposite() {
		t.Error("IsComposite misclassifies")
	}
}

func TestNameHashIsFNV1a(t *testing.T) {
	if got := NameHash(""); got != 0xcbf29ce484222325 {
		t.Errorf("NameHash(\"\") = %#x", got)
	}
	if got := NameHash("a"); got != 0xaf63dc4c8601ec8c {
		t.Errorf("NameHash(\"a\") = %#x", got)
	}
}
