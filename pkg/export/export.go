// Package export renders an optimized pipeline tree as a standalone
// scikit-learn style training script: the minimal import block implied by the
// operators actually present, data-loading boilerplate, and the pipeline
// construction expression itself. The emitted expression is re-parseable by
// this package, which the round-trip tests rely on.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

const (
	identityArm = "FunctionTransformer(copy)"
	indentUnit  = "    "
)

// Script compiles the individual and renders the full standalone script.
func Script(ind *gp.Individual) (string, error) {
	spec, err := pipeline.Compile(ind)
	if err != nil {
		return "", err
	}
	return ScriptFromSpec(spec), nil
}

// ScriptFromSpec renders the full standalone script for a compiled pipeline.
func ScriptFromSpec(spec *pipeline.Spec) string {
	var b strings.Builder
	for _, line := range Imports(spec) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(`
# NOTE: Make sure that the outcome column is labeled 'target' in the data file
data = pd.read_csv('PATH/TO/DATA/FILE', sep='COLUMN_SEPARATOR', dtype=np.float64)
features = data.drop('target', axis=1)
training_features, testing_features, training_target, testing_target = \
    train_test_split(features, data['target'], random_state=42)

`)
	b.WriteString("exported_pipeline = ")
	b.WriteString(Expression(spec))
	b.WriteString(`

exported_pipeline.fit(training_features, training_target)
results = exported_pipeline.predict(testing_features)
`)
	return b.String()
}

// Expression renders the pipeline construction expression: a bare estimator
// call for a single-step pipeline, make_pipeline for chains, make_union for
// combine branches with identity arms wrapped in a pass-through transformer.
func Expression(spec *pipeline.Spec) string {
	return render(spec, 0)
}

func render(spec *pipeline.Spec, depth int) string {
	switch spec.Kind {
	case pipeline.KindSequence:
		return nest("make_pipeline", renderAll(spec.Steps, depth+1), depth)
	case pipeline.KindUnion:
		return nest("make_union", []string{renderArm(spec.Left, depth+1), renderArm(spec.Right, depth+1)}, depth)
	default:
		return stepCall(spec.Step)
	}
}

func renderAll(specs []*pipeline.Spec, depth int) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = render(s, depth)
	}
	return out
}

func renderArm(arm *pipeline.Spec, depth int) string {
	if arm == nil {
		return identityArm
	}
	if arm.Kind == pipeline.KindSequence {
		return nest("make_pipeline", renderAll(arm.Steps, depth+1), depth)
	}
	return render(arm, depth)
}

func nest(call string, args []string, depth int) string {
	inner := strings.Repeat(indentUnit, depth+1)
	outer := strings.Repeat(indentUnit, depth)
	return call + "(\n" + inner + strings.Join(args, ",\n"+inner) + "\n" + outer + ")"
}

func stepCall(step *gp.StepSpec) string {
	args := make([]string, 0, len(step.ParamNames))
	for _, name := range step.ParamNames {
		args = append(args, fmt.Sprintf("%s=%s", name, gp.FormatValue(step.Params[name])))
	}
	return fmt.Sprintf("%s(%s)", step.Operator, strings.Join(args, ", "))
}

// Imports computes the minimal import block for a compiled pipeline: the
// fixed data-handling boilerplate, the pipeline constructors actually used,
// and one grouped import line per operator module present in the tree.
func Imports(spec *pipeline.Spec) []string {
	byModule := map[string]map[string]bool{}
	var hasSequence, hasUnion, hasIdentity bool
	collectImports(spec, byModule, &hasSequence, &hasUnion, &hasIdentity)

	lines := []string{
		"import numpy as np",
		"import pandas as pd",
		"from sklearn.model_selection import train_test_split",
	}
	switch {
	case hasUnion && hasSequence:
		lines = append(lines, "from sklearn.pipeline import make_pipeline, make_union")
	case hasUnion:
		lines = append(lines, "from sklearn.pipeline import make_union")
	case hasSequence:
		lines = append(lines, "from sklearn.pipeline import make_pipeline")
	}
	if hasIdentity {
		lines = append(lines, "from sklearn.preprocessing import FunctionTransformer")
		lines = append(lines, "from copy import copy")
	}

	modules := make([]string, 0, len(byModule))
	for module := range byModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	for _, module := range modules {
		names := make([]string, 0, len(byModule[module]))
		for name := range byModule[module] {
			names = append(names, name)
		}
		sort.Strings(names)
		lines = append(lines, fmt.Sprintf("from %s import %s", module, strings.Join(names, ", ")))
	}
	return lines
}

func collectImports(spec *pipeline.Spec, byModule map[string]map[string]bool, hasSequence, hasUnion, hasIdentity *bool) {
	if spec == nil {
		*hasIdentity = true
		return
	}
	switch spec.Kind {
	case pipeline.KindStep:
		if spec.Step.Import == "" {
			return
		}
		if byModule[spec.Step.Import] == nil {
			byModule[spec.Step.Import] = map[string]bool{}
		}
		byModule[spec.Step.Import][spec.Step.Operator] = true
	case pipeline.KindSequence:
		*hasSequence = true
		for _, s := range spec.Steps {
			collectImports(s, byModule, hasSequence, hasUnion, hasIdentity)
		}
	case pipeline.KindUnion:
		*hasUnion = true
		collectImports(spec.Left, byModule, hasSequence, hasUnion, hasIdentity)
		collectImports(spec.Right, byModule, hasSequence, hasUnion, hasIdentity)
	}
}
