package fdspec

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileRelation(t *testing.T, src, name string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath("relation." + name))
}

func TestCompileRelationBasic(t *testing.T) {
	v := compileRelation(t, `
		relation: Employee: {
			attributes: ["id", "name", "dept", "manager"]
			fds: [
				{lhs: ["id"], rhs: ["name", "dept"]},
				"dept -> manager",
			]
		}
	`, "Employee")

	rel, err := CompileRelation(v)
	require.NoError(t, err)

	assert.Equal(t, "Employee", rel.Name)
	assert.Equal(t, "{dept, id, manager, name}", rel.Attributes.String())
	require.Len(t, rel.FDs, 2)
	assert.Equal(t, "{id} -> {dept, name}", rel.FDs[0].String())
	assert.Equal(t, "{dept} -> {manager}", rel.FDs[1].String())
	assert.Zero(t, rel.FDs[0].Version)
}

func TestCompileRelationNoFDs(t *testing.T) {
	v := compileRelation(t, `relation: R: attributes: ["a", "b"]`, "R")

	rel, err := CompileRelation(v)
	require.NoError(t, err)
	assert.NotNil(t, rel.FDs)
	assert.Empty(t, rel.FDs)
}

func TestCompileRelationDeduplicatesFDs(t *testing.T) {
	v := compileRelation(t, `
		relation: R: {
			attributes: ["a", "b"]
			fds: ["a -> b", {lhs: ["a"], rhs: ["b"]}]
		}
	`, "R")

	rel, err := CompileRelation(v)
	require.NoError(t, err)
	assert.Len(t, rel.FDs, 1)
}

func TestCompileRelationErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
	}{
		{
			name:    "missing attributes",
			src:     `relation: R: fds: []`,
			field:   "attributes",
			message: "required",
		},
		{
			name:    "empty attributes",
			src:     `relation: R: attributes: []`,
			field:   "attributes",
			message: "at least one",
		},
		{
			name:    "duplicate attributes",
			src:     `relation: R: attributes: ["a", "a"]`,
			field:   "attributes",
			message: "duplicate",
		},
		{
			name:    "attributes not a list",
			src:     `relation: R: attributes: "a"`,
			field:   "attributes",
			message: "list of strings",
		},
		{
			name:    "non-string attribute",
			src:     `relation: R: attributes: ["a", 1]`,
			field:   "attributes",
			message: "must be strings",
		},
		{
			name:    "undeclared attribute",
			src:     `relation: R: {attributes: ["a"], fds: ["a -> z"]}`,
			field:   "fds",
			message: "undeclared attribute",
		},
		{
			name:    "bad notation",
			src:     `relation: R: {attributes: ["a"], fds: ["a b"]}`,
			field:   "fds",
			message: "->",
		},
		{
			name:    "missing rhs",
			src:     `relation: R: {attributes: ["a"], fds: [{lhs: ["a"]}]}`,
			field:   "fds.rhs",
			message: "required",
		},
		{
			name:    "fd of wrong kind",
			src:     `relation: R: {attributes: ["a"], fds: [1]}`,
			field:   "fds",
			message: "lhs and rhs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileRelation(t, tt.src, "R")
			_, err := CompileRelation(v)
			require.Error(t, err)

			var compileErr *CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, tt.field, compileErr.Field)
			assert.Contains(t, compileErr.Message, tt.message)
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeAttributes, MapFieldToErrorCode("attributes"))
	assert.Equal(t, ErrCodeFDs, MapFieldToErrorCode("fds.lhs"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("cue"))
}
