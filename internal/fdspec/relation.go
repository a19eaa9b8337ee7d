package fdspec

import (
	"cmp"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/armstrong/internal/ir"
	"github.com/roach88/armstrong/internal/parse"
)

// CompileRelation parses a CUE value into a Relation.
//
// The CUE value should be the relation struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`relation: R: { attributes: ["a"], fds: [] }`)
//	rel, err := CompileRelation(v.LookupPath(cue.ParsePath("relation.R")))
//
// FDs in the result carry version 0.
func CompileRelation(v cue.Value) (*ir.Relation, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rel := &ir.Relation{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		rel.Name = labels[len(labels)-1].String()
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "attributes is required",
			Pos:     v.Pos(),
		}
	}
	names, err := stringList(attrsVal, "attributes")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "at least one attribute is required",
			Pos:     attrsVal.Pos(),
		}
	}
	rel.Attributes = ir.NewAttrSet(names...)
	if rel.Attributes.Len() != len(names) {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "duplicate attribute name",
			Pos:     attrsVal.Pos(),
		}
	}

	rel.FDs, err = parseFDs(v, rel.Attributes)
	if err != nil {
		return nil, err
	}

	return rel, nil
}

// parseFDs extracts the fds list. A missing list means no dependencies.
func parseFDs(v cue.Value, universe ir.AttrSet) ([]ir.FD, error) {
	fds := []ir.FD{}

	fdsVal := v.LookupPath(cue.ParsePath("fds"))
	if !fdsVal.Exists() {
		return fds, nil
	}

	iter, err := fdsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	seen := make(map[string]bool)
	for iter.Next() {
		fd, err := parseFD(iter.Value())
		if err != nil {
			return nil, err
		}
		for _, a := range fd.LHS.Union(fd.RHS) {
			if !universe.Contains(a) {
				return nil, &CompileError{
					Field:   "fds",
					Message: fmt.Sprintf("%s uses undeclared attribute %q", fd, a),
					Pos:     iter.Value().Pos(),
				}
			}
		}
		if seen[fd.Key()] {
			continue
		}
		seen[fd.Key()] = true
		fds = append(fds, fd)
	}

	return fds, nil
}

// parseFD accepts either FD notation or a {lhs, rhs} struct.
func parseFD(v cue.Value) (ir.FD, error) {
	if s, err := v.String(); err == nil {
		fd, err := parse.FD(s)
		if err != nil {
			return ir.FD{}, &CompileError{
				Field:   "fds",
				Message: err.Error(),
				Pos:     v.Pos(),
			}
		}
		return fd, nil
	}

	if v.IncompleteKind() != cue.StructKind {
		return ir.FD{}, &CompileError{
			Field:   "fds",
			Message: "must be a string or object with lhs and rhs fields",
			Pos:     v.Pos(),
		}
	}

	var sides [2]ir.AttrSet
	for i, field := range []string{"lhs", "rhs"} {
		sideVal := v.LookupPath(cue.ParsePath(field))
		if !sideVal.Exists() {
			return ir.FD{}, &CompileError{
				Field:   "fds." + field,
				Message: field + " is required",
				Pos:     v.Pos(),
			}
		}
		names, err := stringList(sideVal, "fds."+field)
		if err != nil {
			return ir.FD{}, err
		}
		sides[i] = ir.NewAttrSet(names...)
	}

	return ir.NewFD(sides[0], sides[1], 0), nil
}

// stringList decodes a CUE list of strings.
func stringList(v cue.Value, field string) ([]string, error) {
	if v.IncompleteKind() != cue.ListKind {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a list of strings, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	names := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("attribute names must be strings: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		names = append(names, s)
	}
	return names, nil
}

// SortRelations orders relations by name.
func SortRelations(rels []ir.Relation) {
	slices.SortFunc(rels, func(a, b ir.Relation) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
