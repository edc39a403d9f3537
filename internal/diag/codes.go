package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// include resolution
	IncInfo      Code = 1000
	IncCycle     Code = 1001
	IncNotFound  Code = 1002
	IncOutOfRoot Code = 1003
	IncMalformed Code = 1004

	// legacy syntax normalization and texture-array splitting
	NrmInfo              Code = 2000
	NrmUnsupportedSyntax Code = 2001

	// external tools and backends
	TolInfo           Code = 3000
	TolInvocation     Code = 3001
	TolMissing        Code = 3002
	TolVariantFailed  Code = 3003
	TolVariantSkipped Code = 3004

	// reflection validation
	RefInfo    Code = 4000
	RefInvalid Code = 4001

	// orchestration and descriptor assembly
	CmpInfo                Code = 5000
	CmpUnsupportedPlatform Code = 5001
	CmpInvalidModules      Code = 5002
	CmpEmptyStage          Code = 5003
	CmpUnknownStage        Code = 5004

	IOInfo          Code = 6000
	IOLoadFileError Code = 6001
	IOWriteError    Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	IncInfo:                "Include information",
	IncCycle:               "Cyclic include",
	IncNotFound:            "Included file not found",
	IncOutOfRoot:           "Include escapes the project root",
	IncMalformed:           "Malformed include directive",
	NrmInfo:                "Normalization information",
	NrmUnsupportedSyntax:   "Unsupported shader syntax",
	TolInfo:                "Tool information",
	TolInvocation:          "Tool invocation failed",
	TolMissing:             "Tool not found",
	TolVariantFailed:       "Shader variant failed",
	TolVariantSkipped:      "Shader variant skipped",
	RefInfo:                "Reflection information",
	RefInvalid:             "Invalid reflection data",
	CmpInfo:                "Compile information",
	CmpUnsupportedPlatform: "Unsupported platform",
	CmpInvalidModules:      "Invalid shader module set",
	CmpEmptyStage:          "No usable variant for stage",
	CmpUnknownStage:        "Unknown shader stage",
	IOInfo:                 "I/O information",
	IOLoadFileError:        "I/O load file error",
	IOWriteError:           "I/O write error",
}

var codePrefixes = [...]string{1: "INC", 2: "NRM", 3: "TOL", 4: "REF", 5: "CMP", 6: "IO"}

func (c Code) ID() string {
	group := int(c) / 1000
	if group <= 0 || group >= len(codePrefixes) {
		return "E0000"
	}
	return fmt.Sprintf("%s%04d", codePrefixes[group], int(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
