package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestTerminalHandlerModuleFilter(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	var buf bytes.Buffer
	require.NoError(t, InitLogger(&buf, "debug", false))

	Debug(TreeModule, "leaf split", "node", 4, "sibling", 9)
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "leaf split module=bptree node=4 sibling=9")

	buf.Reset()
	DisableModule(TreeModule)
	defer EnableModule(TreeModule)
	Debug(TreeModule, "hidden")
	assert.Empty(t, buf.String())

	Info(TreeModule, "root grown", "height", 3)
	assert.Contains(t, buf.String(), "root grown module=bptree height=3")
}

func TestTerminalHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, LevelWarn, false))

	l.Info(PagerModule, "dropped")
	assert.Empty(t, buf.String())

	l.With("file", "idx.db").Error(PagerModule, "write failed", "page", 7)
	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "file=idx.db")
	assert.Contains(t, buf.String(), "page=7")
}

func TestEnableModules(t *testing.T) {
	defer EnableModules("all")

	EnableModules("pager, bufferpool")
	assert.True(t, isModuleEnabled(PagerModule))
	assert.True(t, isModuleEnabled(PoolModule))
	assert.False(t, isModuleEnabled(TreeModule))

	EnableModules("none")
	assert.False(t, isModuleEnabled(PagerModule))
}
