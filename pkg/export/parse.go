package export

import (
	"strings"
	"unicode"

	"github.com/XiaoConstantine/evopipe/pkg/errors"
	"github.com/XiaoConstantine/evopipe/pkg/gp"
	"github.com/XiaoConstantine/evopipe/pkg/pipeline"
)

// Node is the parsed form of one call in a pipeline construction expression.
// Constructor calls (make_pipeline, make_union, operators) carry nested Args;
// hyperparameters land in Params in source order.
type Node struct {
	Name   string
	Args   []*Node
	Params []Param
}

// Param is one name=value hyperparameter. A bare argument such as the copy
// reference inside FunctionTransformer(copy) has an empty Name and the
// identifier in Value.
type Param struct {
	Name  string
	Value string
}

// Parse reads a pipeline construction expression back into its call tree.
func Parse(src string) (*Node, error) {
	p := &parser{src: src}
	node, err := p.parseCall()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing input after expression")
	}
	return node, nil
}

// ExtractExpression pulls the pipeline construction expression out of a full
// exported script.
func ExtractExpression(script string) (string, error) {
	const marker = "exported_pipeline = "
	start := strings.Index(script, marker)
	if start < 0 {
		return "", errors.New(errors.InvalidInput, "script has no pipeline assignment")
	}
	rest := script[start+len(marker):]

	// The expression ends where the parenthesis nesting closes; a bare
	// estimator call ends at its own closing parenthesis.
	depth := 0
	for i, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return rest[:i+1], nil
			}
		}
	}
	return "", errors.New(errors.InvalidInput, "unbalanced parentheses in pipeline expression")
}

// Matches reports whether a parsed expression reconstructs the same ordered
// operator and hyperparameter sequence as a compiled spec.
func Matches(node *Node, spec *pipeline.Spec) bool {
	if node == nil {
		return false
	}
	switch spec.Kind {
	case pipeline.KindSequence:
		if node.Name != "make_pipeline" || len(node.Args) != len(spec.Steps) || len(node.Params) != 0 {
			return false
		}
		for i, step := range spec.Steps {
			if !Matches(node.Args[i], step) {
				return false
			}
		}
		return true

	case pipeline.KindUnion:
		if node.Name != "make_union" || len(node.Args) != 2 {
			return false
		}
		return matchesArm(node.Args[0], spec.Left) && matchesArm(node.Args[1], spec.Right)

	default:
		if node.Name != spec.Step.Operator || len(node.Args) != 0 {
			return false
		}
		if len(node.Params) != len(spec.Step.ParamNames) {
			return false
		}
		for i, name := range spec.Step.ParamNames {
			param := node.Params[i]
			if param.Name != name || param.Value != gp.FormatValue(spec.Step.Params[name]) {
				return false
			}
		}
		return true
	}
}

func matchesArm(node *Node, arm *pipeline.Spec) bool {
	if arm == nil {
		return node.Name == "FunctionTransformer" &&
			len(node.Args) == 1 && node.Args[0].Name == "copy"
	}
	return Matches(node, arm)
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseCall() (*Node, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected an identifier")
	}
	node := &Node{Name: name}

	p.skipSpace()
	if !p.eat('(') {
		// A bare identifier argument, like the copy reference.
		return node, nil
	}

	p.skipSpace()
	if p.eat(')') {
		return node, nil
	}
	for {
		if err := p.parseArg(node); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eat(',') {
			continue
		}
		if p.eat(')') {
			return node, nil
		}
		return nil, p.errorf("expected ',' or ')'")
	}
}

func (p *parser) parseArg(node *Node) error {
	p.skipSpace()
	mark := p.pos
	name := p.ident()
	if name != "" {
		p.skipSpace()
		if p.eat('=') {
			p.skipSpace()
			value, err := p.value()
			if err != nil {
				return err
			}
			node.Params = append(node.Params, Param{Name: name, Value: value})
			return nil
		}
		p.pos = mark
		child, err := p.parseCall()
		if err != nil {
			return err
		}
		node.Args = append(node.Args, child)
		return nil
	}

	value, err := p.value()
	if err != nil {
		return err
	}
	node.Params = append(node.Params, Param{Value: value})
	return nil
}

// value reads one scalar literal: a quoted string, or a number token.
func (p *parser) value() (string, error) {
	if p.pos < len(p.src) && p.src[p.pos] == '\'' {
		end := strings.IndexByte(p.src[p.pos+1:], '\'')
		if end < 0 {
			return "", p.errorf("unterminated string literal")
		}
		value := p.src[p.pos : p.pos+end+2]
		p.pos += end + 2
		return value, nil
	}

	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == ')' || c == '\n' || c == ' ' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected a value")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if unicode.IsLetter(r) || r == '_' || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) eat(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(msg string) error {
	return errors.WithFields(
		errors.New(errors.InvalidInput, "malformed pipeline expression: "+msg),
		errors.Fields{"position": p.pos})
}
