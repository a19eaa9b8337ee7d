package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/armstrong/internal/ir"
)

// ErrMissingArrow is returned when FD text has no "->" separator.
var ErrMissingArrow = errors.New("missing \"->\" separator")

// ParseError reports malformed FD or attribute list text.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A Name is one or more words separated by whitespace. A word never
// contains braces, commas, quotes or whitespace, and a '-' inside it must
// not be followed by '>', so "a->b" lexes as a name, an arrow and a name.
const (
	wordPattern = `(?:[^{},"\s-]|-+[^{},"\s>-])+`
	namePattern = wordPattern + `(?:[ \t]+` + wordPattern + `)*`
)

var fdLexer = lexer.MustSimple([]lexer.Rule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Punct", Pattern: `[{},]`},
	{Name: "Name", Pattern: namePattern},
	{Name: "whitespace", Pattern: `\s+`},
})

type fdExpr struct {
	LHS attrList `@@ Arrow`
	RHS attrList `@@`
}

type attrList struct {
	Braced []string `( "{" ( @(Name | String) ( "," @(Name | String) )* )? "}" |`
	Bare   []string `  @(Name | String) ( "," @(Name | String) )* )`
}

func (l attrList) set() ir.AttrSet {
	if l.Bare != nil {
		return ir.NewAttrSet(l.Bare...)
	}
	return ir.NewAttrSet(l.Braced...)
}

type attrsExpr struct {
	Attrs attrList `@@`
}

var (
	fdParser    = participle.MustBuild(&fdExpr{}, participle.Lexer(fdLexer), participle.Unquote("String"))
	attrsParser = participle.MustBuild(&attrsExpr{}, participle.Lexer(fdLexer), participle.Unquote("String"))
)

// FD parses "lhs -> rhs" into a version-0 FD.
func FD(s string) (ir.FD, error) {
	lhs, rhs, err := Sides(s)
	if err != nil {
		return ir.FD{}, err
	}
	return ir.NewFD(lhs, rhs, 0), nil
}

// Sides parses "lhs -> rhs" into its two attribute sets.
func Sides(s string) (lhs, rhs ir.AttrSet, err error) {
	if !strings.Contains(s, "->") {
		return nil, nil, &ParseError{Input: s, Err: ErrMissingArrow}
	}
	var expr fdExpr
	if err := fdParser.ParseString("", s, &expr); err != nil {
		return nil, nil, &ParseError{Input: s, Err: err}
	}
	return expr.LHS.set(), expr.RHS.set(), nil
}

// Attrs parses an attribute list such as "{a, b}" or "a, b".
// Blank input is the empty set.
func Attrs(s string) (ir.AttrSet, error) {
	if strings.TrimSpace(s) == "" {
		return ir.NewAttrSet(), nil
	}
	var expr attrsExpr
	if err := attrsParser.ParseString("", s, &expr); err != nil {
		return nil, &ParseError{Input: s, Err: err}
	}
	return expr.Attrs.set(), nil
}
