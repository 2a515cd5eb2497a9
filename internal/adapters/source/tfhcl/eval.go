package tfhcl

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
)

var topLevelSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "locals"},
	},
}

// BuildEvalContext assembles the expression evaluation scope: variable
// defaults overridden by tfvars files, evaluated locals, path and workspace
// references, and the standard function table. Values that cannot be resolved
// stay absent from the scope so references to them evaluate as unknown.
func BuildEvalContext(ctx context.Context, files map[string]*hcl.File, cfg Config, logger ports.Logger) (*hcl.EvalContext, hcl.Diagnostics) {
	var allDiags hcl.Diagnostics

	variables := make(map[string]cty.Value)
	var localsBlocks []*hcl.Block

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		file := files[path]
		if file == nil || file.Body == nil {
			continue
		}
		content, _, diags := file.Body.PartialContent(topLevelSchema)
		allDiags = append(allDiags, diags...)
		for _, block := range content.Blocks {
			switch block.Type {
			case "variable":
				name, defVal, varDiags := decodeVariableDefault(block)
				allDiags = append(allDiags, varDiags...)
				if name != "" && defVal != cty.NilVal {
					variables[name] = defVal
				}
			case "locals":
				localsBlocks = append(localsBlocks, block)
			}
		}
	}

	for _, varsPath := range varFilePaths(cfg) {
		vars, diags := loadVarsFile(varsPath)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			logger.Warnf(ctx, "Skipping unreadable vars file %s: %s", varsPath, diags.Error())
			continue
		}
		for name, val := range vars {
			variables[name] = val
		}
	}

	modulePath, _ := filepath.Abs(cfg.Directory)
	cwd, _ := filepath.Abs(".")

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(variables),
			"path": cty.ObjectVal(map[string]cty.Value{
				"module": cty.StringVal(modulePath),
				"root":   cty.StringVal(modulePath),
				"cwd":    cty.StringVal(cwd),
			}),
			"terraform": cty.ObjectVal(map[string]cty.Value{
				"workspace": cty.StringVal(cfg.Workspace),
			}),
			"local": cty.EmptyObjectVal,
		},
		Functions: standardFunctions(),
	}

	locals := evaluateLocals(localsBlocks, evalCtx)
	if len(locals) > 0 {
		evalCtx.Variables["local"] = cty.ObjectVal(locals)
	}

	return evalCtx, allDiags
}

var variableDefaultSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "default"},
		{Name: "description"},
		{Name: "type"},
		{Name: "sensitive"},
	},
}

func decodeVariableDefault(block *hcl.Block) (string, cty.Value, hcl.Diagnostics) {
	if len(block.Labels) != 1 {
		return "", cty.NilVal, nil
	}
	content, _, diags := block.Body.PartialContent(variableDefaultSchema)
	attr, ok := content.Attributes["default"]
	if !ok {
		return block.Labels[0], cty.NilVal, diags
	}
	val, valDiags := attr.Expr.Value(nil)
	diags = append(diags, valDiags...)
	if valDiags.HasErrors() {
		return block.Labels[0], cty.NilVal, diags
	}
	return block.Labels[0], val, diags
}

// varFilePaths returns the tfvars files to load, in precedence order:
// terraform.tfvars first, then *.auto.tfvars alphabetically, then any
// explicitly configured files. Later files override earlier ones.
func varFilePaths(cfg Config) []string {
	var paths []string
	defaultPath := filepath.Join(cfg.Directory, "terraform.tfvars")
	if _, err := os.Stat(defaultPath); err == nil {
		paths = append(paths, defaultPath)
	}
	autoFiles, _ := filepath.Glob(filepath.Join(cfg.Directory, "*.auto.tfvars"))
	sort.Strings(autoFiles)
	paths = append(paths, autoFiles...)
	for _, p := range cfg.VarFiles {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Directory, p)
		}
		paths = append(paths, p)
	}
	return paths
}

func loadVarsFile(path string) (map[string]cty.Value, hcl.Diagnostics) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if file == nil || diags.HasErrors() {
		return nil, diags
	}

	attrs, attrDiags := file.Body.JustAttributes()
	diags = append(diags, attrDiags...)
	if attrDiags.HasErrors() {
		return nil, diags
	}

	vars := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			vars[name] = val
		}
	}
	return vars, diags
}

// evaluateLocals resolves locals in repeated passes so that locals referring
// to other locals settle without a dependency graph. Locals that still fail
// after the final pass are left out of scope.
func evaluateLocals(blocks []*hcl.Block, evalCtx *hcl.EvalContext) map[string]cty.Value {
	resolved := make(map[string]cty.Value)

	type pending struct {
		name string
		expr hcl.Expression
	}
	var remaining []pending
	for _, block := range blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			continue
		}
		for name, attr := range attrs {
			remaining = append(remaining, pending{name: name, expr: attr.Expr})
		}
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].name < remaining[j].name })

	for pass := 0; pass < 3 && len(remaining) > 0; pass++ {
		if len(resolved) > 0 {
			evalCtx.Variables["local"] = cty.ObjectVal(resolved)
		}
		var next []pending
		for _, p := range remaining {
			val, diags := p.expr.Value(evalCtx)
			if diags.HasErrors() || !val.IsWhollyKnown() {
				next = append(next, p)
				continue
			}
			resolved[p.name] = val
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

// EvaluateResourceBlock evaluates a resource block's attributes and nested
// blocks into plain Go values. Nested blocks group by type into slices, the
// way Terraform represents repeatable blocks. Attributes whose expressions
// fail or stay unknown become unresolved markers carrying the source text.
func EvaluateResourceBlock(block *hcl.Block, evalCtx *hcl.EvalContext, snippet func(hcl.Range) string) (map[string]any, hcl.Diagnostics) {
	return evaluateBody(block.Body, evalCtx, snippet)
}

func evaluateBody(body hcl.Body, evalCtx *hcl.EvalContext, snippet func(hcl.Range) string) (map[string]any, hcl.Diagnostics) {
	out := make(map[string]any)
	var diags hcl.Diagnostics

	syn, ok := body.(*hclsyntax.Body)
	if !ok {
		// JSON syntax bodies expose everything as attributes.
		attrs, attrDiags := body.JustAttributes()
		diags = append(diags, attrDiags...)
		for name, attr := range attrs {
			out[name] = evaluateAttr(attr.Expr, evalCtx, snippet, &diags)
		}
		return out, diags
	}

	for name, attr := range syn.Attributes {
		out[name] = evaluateAttr(attr.Expr, evalCtx, snippet, &diags)
	}

	for _, nested := range syn.Blocks {
		content, blockDiags := evaluateBody(nested.Body, evalCtx, snippet)
		diags = append(diags, blockDiags...)

		key := nested.Type
		if existing, exists := out[key]; exists {
			if slice, isSlice := existing.([]any); isSlice {
				out[key] = append(slice, content)
				continue
			}
		}
		out[key] = []any{content}
	}
	return out, diags
}

func evaluateAttr(expr hcl.Expression, evalCtx *hcl.EvalContext, snippet func(hcl.Range) string, diags *hcl.Diagnostics) any {
	val, valDiags := expr.Value(evalCtx)
	if valDiags.HasErrors() || !val.IsWhollyKnown() {
		return domain.UnresolvedExpr(snippet(expr.Range()))
	}
	goVal, err := convertCtyValue(val)
	if err != nil {
		*diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "Value conversion failed",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		})
		return domain.UnresolvedExpr(snippet(expr.Range()))
	}
	return goVal
}
