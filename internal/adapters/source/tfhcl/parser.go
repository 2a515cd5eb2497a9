package tfhcl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cloudkinetics/azdrift/internal/errors"
)

// ParseDirectory parses every .tf and .tf.json file in dirPath. Subdirectories
// are not descended into, matching Terraform's own module boundary.
func ParseDirectory(dirPath string) (map[string]*hcl.File, hcl.Diagnostics, error) {
	files := make(map[string]*hcl.File)
	var allDiags hcl.Diagnostics
	parser := hclparse.NewParser()

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeSourceReadError,
			fmt.Sprintf("failed to read HCL directory: %s", dirPath))
	}

	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".tf") && !strings.HasSuffix(name, ".tf.json") {
			continue
		}
		found = true
		path := filepath.Join(dirPath, name)

		var file *hcl.File
		var diags hcl.Diagnostics
		if strings.HasSuffix(name, ".tf.json") {
			file, diags = parser.ParseJSONFile(path)
		} else {
			file, diags = parser.ParseHCLFile(path)
		}
		allDiags = append(allDiags, diags...)
		if file != nil {
			files[path] = file
		}
	}

	if !found {
		return nil, nil, errors.New(errors.CodeSourceParseError,
			fmt.Sprintf("no Terraform files (.tf, .tf.json) found in directory: %s", dirPath))
	}
	return files, allDiags, nil
}

var resourceSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "resource", LabelNames: []string{"type", "name"}},
	},
}

// FindResourceBlocks returns every resource block across the parsed files,
// ordered by file path for deterministic traversal.
func FindResourceBlocks(files map[string]*hcl.File) []*hcl.Block {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var blocks []*hcl.Block
	for _, path := range paths {
		file := files[path]
		if file == nil || file.Body == nil {
			continue
		}
		content, _, _ := file.Body.PartialContent(resourceSchema)
		for _, block := range content.Blocks {
			if len(block.Labels) == 2 {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}

// sourceSnippet returns a lookup that extracts the raw source text covered by
// a range, used to preserve unresolved expressions verbatim.
func sourceSnippet(files map[string]*hcl.File) func(hcl.Range) string {
	return func(rng hcl.Range) string {
		file, ok := files[rng.Filename]
		if !ok || file == nil {
			return "${unknown}"
		}
		src := file.Bytes
		if rng.Start.Byte < 0 || rng.End.Byte > len(src) || rng.Start.Byte > rng.End.Byte {
			return "${unknown}"
		}
		return "${" + strings.TrimSpace(string(src[rng.Start.Byte:rng.End.Byte])) + "}"
	}
}
