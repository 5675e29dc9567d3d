package script_engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacroUnitArea(t *testing.T) {
	script, err := NewCompiler(unitTable()).Compile(unitRequest())
	require.NoError(t, err)

	lines := Macro(script, `"out", 4, "pic", 0`)
	require.Len(t, lines, 3+4*4)
	assert.Equal(t, []string{"StgMoveX(0);", "StgMoveY(0);", "Wait(8);"}, lines[:3])
	assert.Equal(t, []string{
		"StgMoveX(1);",
		"StgMoveY(0);",
		"Wait(0.5);",
		`SaveNext_Images("out", 4, "pic", 0);`,
	}, lines[7:11])
}

func TestMacroFocusAndDefaultSaveParams(t *testing.T) {
	req := unitRequest()
	req.InitialFocus = nil
	script, err := NewCompiler(unitTable()).Compile(req)
	require.NoError(t, err)

	lines := Macro(script, "")
	assert.Equal(t, "StgFocus();", lines[3])
	assert.Equal(t, "Wait(8);", lines[4])
	assert.Contains(t, lines, "SaveNext_Images("+DefaultSaveParams+");")
}

func TestWriteMacro(t *testing.T) {
	script, err := NewCompiler(unitTable()).Compile(unitRequest())
	require.NoError(t, err)

	var buf bytes.Buffer
	count, err := WriteMacro(&buf, script, "")
	require.NoError(t, err)
	assert.Equal(t, 19, count)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("StgMoveX(0);\nStgMoveY(0);\n")))
	assert.False(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}
