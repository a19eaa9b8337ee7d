package fdspec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeeSpec = `package specs

relation: Employee: {
	attributes: ["id", "name", "dept", "manager"]
	fds: [
		{lhs: ["id"], rhs: ["name", "dept"]},
		"dept -> manager",
	]
}
`

const courseSpec = `package specs

relation: Course: {
	attributes: ["course", "teacher", "room"]
	fds: ["course -> teacher", "teacher -> room"]
}
`

func writeSpec(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSpecsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "employee.cue", employeeSpec)
	writeSpec(t, dir, "course.cue", courseSpec)

	result, errs := LoadSpecs(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Relations, 2)
	assert.Equal(t, "Course", result.Relations[0].Name)
	assert.Equal(t, "Employee", result.Relations[1].Name)
	assert.Len(t, result.FDs(), 4)
}

func TestLoadSpecsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "employee.cue", employeeSpec)
	writeSpec(t, dir, "course.cue", courseSpec)

	result, errs := LoadSpecs(path, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Relations, 1)
	assert.Equal(t, "Employee", result.Relations[0].Name)
}

func TestLoadSpecsNotFound(t *testing.T) {
	_, errs := LoadSpecs(filepath.Join(t.TempDir(), "missing"), LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadSpecsEmptyDirectory(t *testing.T) {
	_, errs := LoadSpecs(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadSpecsNotCUEFile(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "notes.txt", "hello")

	_, errs := LoadSpecs(path, LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadSpecsSyntaxError(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "bad.cue", "relation: R: {attributes: [")

	_, errs := LoadSpecs(path, LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeBuildFailed, loadErr.Code)
}

func TestLoadSpecsNoRelations(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "empty.cue", "package specs\n\nother: 1\n")

	_, errs := LoadSpecs(path, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no relations")
}

func TestLoadSpecsCollectAll(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "specs.cue", `package specs

relation: A: attributes: []
relation: B: {attributes: ["x"], fds: ["x -> y"]}
relation: C: attributes: ["c"]
`)

	result, errs := LoadSpecs(dir, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.Len(t, result.Relations, 1)
	assert.Equal(t, "C", result.Relations[0].Name)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeAttributes, loadErr.Code)
	require.True(t, errors.As(errs[1], &loadErr))
	assert.Equal(t, ErrCodeFDs, loadErr.Code)
}

func TestLoadSpecsFailFast(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "specs.cue", `package specs

relation: A: attributes: []
relation: B: attributes: []
`)

	_, errs := LoadSpecs(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}
