package texture

import (
	"fmt"
	"strings"
)

// CompressedImageFormats is a set of hardware compressed texture families.
// The zero value (FormatsNone) means "plain uncompressed data", which every device supports.
type CompressedImageFormats uint32

const FormatsNone CompressedImageFormats = 0

const (
	FormatASTCLDR CompressedImageFormats = 1 << iota
	FormatBC
	FormatETC2
)

var formatNames = []struct {
	flag CompressedImageFormats
	name string
}{
	{FormatASTCLDR, "astc_ldr"},
	{FormatBC, "bc"},
	{FormatETC2, "etc2"},
}

// Contains reports whether every family in other is also in f.
// Every set contains FormatsNone.
func (f CompressedImageFormats) Contains(other CompressedImageFormats) bool {
	return f&other == other
}

func (f CompressedImageFormats) String() string {
	if f == FormatsNone {
		return "none"
	}
	var parts []string
	for _, n := range formatNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseCompressedFormats parses a name as written in the config file ("none", "astc_ldr",
// "bc", "etc2"), or several joined with '|'.
func ParseCompressedFormats(s string) (CompressedImageFormats, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return FormatsNone, nil
	}
	var out CompressedImageFormats
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range formatNames {
			if n.name == part {
				out |= n.flag
				found = true
				break
			}
		}
		if !found {
			return FormatsNone, fmt.Errorf("unknown compressed format %q", part)
		}
	}
	return out, nil
}

// CompressedFormatsFromExtensions derives the supported set from an OpenGL extension list.
// BC needs the S3TC, RGTC and BPTC families together to cover BC1-BC7.
func CompressedFormatsFromExtensions(extensions []string) CompressedImageFormats {
	have := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		have[e] = true
	}

	var out CompressedImageFormats
	if have["GL_KHR_texture_compression_astc_ldr"] {
		out |= FormatASTCLDR
	}
	if have["GL_EXT_texture_compression_s3tc"] &&
		have["GL_ARB_texture_compression_rgtc"] &&
		have["GL_ARB_texture_compression_bptc"] {
		out |= FormatBC
	}
	if have["GL_ARB_ES3_compatibility"] {
		out |= FormatETC2
	}
	return out
}
