package reflection

// document is the subset of spirv-cross --reflect output the validator reads.
type document struct {
	Types            map[string]typeDecl `json:"types"`
	Inputs           []stageVar          `json:"inputs"`
	Outputs          []stageVar          `json:"outputs"`
	Textures         []resource          `json:"textures"`
	SeparateImages   []resource          `json:"separate_images"`
	SeparateSamplers []resource          `json:"separate_samplers"`
	Images           []resource          `json:"images"`
	UBOs             []resource          `json:"ubos"`
	SSBOs            []resource          `json:"ssbos"`
}

type typeDecl struct {
	Name    string   `json:"name"`
	Members []member `json:"members"`
}

type member struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Offset int64   `json:"offset"`
	Array  []int64 `json:"array"`
}

type stageVar struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Location int64   `json:"location"`
	Array    []int64 `json:"array"`
}

type resource struct {
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Set       int64   `json:"set"`
	Binding   int64   `json:"binding"`
	BlockSize int64   `json:"block_size"`
	Array     []int64 `json:"array"`
}
