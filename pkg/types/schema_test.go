package types

import "testing"

func TestColumnDef_IsCollection(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"text", false},
		{"int", false},
		{"map<text, int>", true},
		{"set<text>", true},
		{"list<int>", true},
		{"frozen<map<text, int>>", true},
		{"frozen<udt_name>", false},
		{" MAP<text,int>", true},
	}

	for _, tt := range tests {
		c := ColumnDef{Name: "c", Type: tt.typ}
		if got := c.IsCollection(); got != tt.want {
			t.Errorf("IsCollection(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestColumnDef_EffectiveKind(t *testing.T) {
	c := ColumnDef{Name: "c", Type: "text"}
	if c.EffectiveKind() != ColumnKindRegular {
		t.Errorf("got %q, want regular", c.EffectiveKind())
	}
	c.Kind = ColumnKindPartitionKey
	if c.EffectiveKind() != ColumnKindPartitionKey {
		t.Errorf("got %q, want partition_key", c.EffectiveKind())
	}
}

func TestIndexMetadata_Target(t *testing.T) {
	im := IndexMetadata{Name: "idx"}
	if _, ok := im.Target(); ok {
		t.Error("nil options should report no target")
	}

	im.Options = map[string]string{TargetOptionName: "values(v)"}
	target, ok := im.Target()
	if !ok || target != "values(v)" {
		t.Errorf("got (%q, %v), want (values(v), true)", target, ok)
	}
	if im.IsCustom() {
		t.Error("index without class_name should not be custom")
	}

	im.Options[CustomIndexOptionName] = "org.example.SASI"
	if !im.IsCustom() {
		t.Error("index with class_name should be custom")
	}
}
