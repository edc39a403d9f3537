package reflection

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"shaderpipe/internal/shader"
)

const fragmentReflection = `{
  "types": {
    "_12": {"name": "_SP_GENERATED_UB_0", "members": [{"name": "tint", "type": "vec4", "offset": 0}]},
    "_20": {"name": "Lights", "members": [
      {"name": "color", "type": "vec4", "offset": 0, "array": [4]},
      {"name": "count", "type": "int", "offset": 64}
    ]}
  },
  "inputs": [
    {"type": "vec2", "name": "uv", "location": 1},
    {"type": "vec4", "name": "color", "location": 0}
  ],
  "outputs": [{"type": "vec4", "name": "_SP_GENERATED_FragColor_0", "location": 0}],
  "textures": [
    {"type": "sampler2D", "name": "tex", "set": 1, "binding": 2},
    {"type": "sampler2DArray", "name": "pages", "set": 1, "binding": 0}
  ],
  "ubos": [
    {"type": "_12", "name": "_SP_GENERATED_UB_0", "block_size": 16, "set": 1, "binding": 3},
    {"type": "_20", "name": "Lights", "block_size": 68, "set": 1, "binding": 1}
  ]
}`

func TestValidateBuildsSortedTable(t *testing.T) {
	table, err := Validate([]byte(fragmentReflection), shader.StageFragment)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var names []string
	for _, r := range table.Resources {
		names = append(names, r.Name)
	}
	if want := []string{"pages", "Lights", "tex", "tint"}; !slices.Equal(names, want) {
		t.Fatalf("resources = %v, want %v", names, want)
	}
	if table.Inputs[0].Name != "color" || table.Inputs[1].Name != "uv" {
		t.Errorf("inputs not sorted by location: %+v", table.Inputs)
	}

	tint, _ := table.Resource("tint")
	if tint.Type != shader.DataTypeVec4 || tint.TypeIndex != shader.NoType || tint.BlockSize != 16 {
		t.Errorf("generated block not flattened: %+v", tint)
	}
	lights, _ := table.Resource("Lights")
	if lights.Type != shader.DataTypeUniformBuffer || lights.TypeIndex != 0 {
		t.Fatalf("named block: %+v", lights)
	}
	members := table.Types[0].Members
	if len(members) != 2 || members[0].ElementCount != 4 || members[1].Offset != 64 {
		t.Errorf("member layout: %+v", members)
	}
	if lights.NameHash != shader.NameHash("Lights") {
		t.Error("name hash not set")
	}
}

func TestValidateBindingOrderIsStable(t *testing.T) {
	data := `{"textures": [
	  {"type": "sampler2D", "name": "b", "set": 1, "binding": 1},
	  {"type": "sampler2D", "name": "a", "set": 0, "binding": 1},
	  {"type": "sampler2D", "name": "c", "set": 0, "binding": 0}
	]}`
	for range 3 {
		table, err := Validate([]byte(data), shader.StageFragment)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for i, r := range table.Resources {
			if i > 0 && r.Binding < table.Resources[i-1].Binding {
				t.Fatalf("bindings decrease at %d", i)
			}
			got = append(got, r.Name)
		}
		if !slices.Equal(got, []string{"c", "b", "a"}) {
			t.Errorf("order = %v", got)
		}
	}
}

func TestValidateBatchesErrors(t *testing.T) {
	data := `{
	  "types": {
	    "_1": {"name": "Empty", "members": []},
	    "_2": {"name": "Bad", "members": [{"name": "tex", "type": "sampler2D", "offset": 0}]},
	    "_3": {"name": "Far", "members": [{"name": "v", "type": "vec4", "offset": 0}]}
	  },
	  "textures": [
	    {"type": "samplerBuffer", "name": "buf", "set": 0, "binding": 4},
	    {"type": "sampler2D", "name": "x", "set": 0, "binding": 5},
	    {"type": "sampler2D", "name": "y", "set": 0, "binding": 5}
	  ],
	  "ubos": [
	    {"type": "_1", "name": "Empty", "set": 0, "binding": 0},
	    {"type": "_2", "name": "Bad", "set": 0, "binding": 1},
	    {"type": "_3", "name": "Far", "set": 2, "binding": 2}
	  ]
	}`
	_, err := Validate([]byte(data), shader.StageVertex)
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	want := []string{
		"No uniforms found in uniform block 'Empty'",
		"Unsupported type 'sampler2D' for uniform 'tex'",
		"Unsupported set value for uniform 'Far', expected <= 1 but found 2",
		"Unsupported type 'samplerBuffer' for texture sampler 'buf'",
		"Uniforms 'x, y' from set 0 have the same binding 5",
	}
	if !slices.Equal(rerr.Messages, want) {
		t.Errorf("messages:\n%s\nwant:\n%s", strings.Join(rerr.Messages, "\n"), strings.Join(want, "\n"))
	}
	if rerr.Stage != shader.StageVertex || !strings.Contains(rerr.Error(), "5 issues") {
		t.Errorf("error text: %s", rerr.Error())
	}
}

func TestValidateResolvesStorageStructs(t *testing.T) {
	data := `{
	  "types": {
	    "_8": {"name": "Particle", "members": [
	      {"name": "pos", "type": "vec4", "offset": 0},
	      {"name": "vel", "type": "vec4", "offset": 16}
	    ]},
	    "_9": {"name": "Particles", "members": [
	      {"name": "count", "type": "uint", "offset": 0},
	      {"name": "items", "type": "_8", "offset": 16, "array": [0]}
	    ]}
	  },
	  "ssbos": [{"type": "_9", "name": "Particles", "block_size": 16, "set": 0, "binding": 0}]
	}`
	table, err := Validate([]byte(data), shader.StageCompute)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ssbo, ok := table.Resource("Particles")
	if !ok || ssbo.Type != shader.DataTypeStorageBuffer {
		t.Fatalf("storage block missing: %+v", table.Resources)
	}
	outer := table.Types[ssbo.TypeIndex]
	items := outer.Members[1]
	if items.Type != shader.DataTypeStruct || items.ElementCount != 0 {
		t.Fatalf("struct member: %+v", items)
	}
	if inner := table.Types[items.TypeIndex]; inner.Name != "Particle" || len(inner.Members) != 2 {
		t.Errorf("inner type: %+v", inner)
	}
}

func TestValidateRejectsUnknownStorageMember(t *testing.T) {
	data := `{
	  "types": {"_9": {"name": "Data", "members": [{"name": "m", "type": "_404", "offset": 0}]}},
	  "ssbos": [{"type": "_9", "name": "Data", "set": 0, "binding": 0}]
	}`
	_, err := Validate([]byte(data), shader.StageCompute)
	if err == nil || !strings.Contains(err.Error(), "Unsupported type '_404' for storage block member 'm'") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateMalformedJSON(t *testing.T) {
	_, err := Validate([]byte("{"), shader.StageVertex)
	var rerr *Error
	if !errors.As(err, &rerr) || !strings.HasPrefix(rerr.Messages[0], "malformed reflection data") {
		t.Errorf("unexpected error: %v", err)
	}
}
