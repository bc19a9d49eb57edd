package process

import (
	"testing"

	"github.com/google/gops/goprocess"
	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	assert.True(t, matches("objrepo", "", "objrepo"))
	assert.True(t, matches("OBJREPO.exe", "", "objrepo"))
	assert.True(t, matches("", "/usr/local/bin/objrepo", "objrepo"))
	assert.False(t, matches("objrepod", "/usr/bin/objrepod", "objrepo"))
	assert.False(t, matches("", "", "objrepo"))
}

func TestFilter(t *testing.T) {
	all := []goprocess.P{
		{PID: 30, Exec: "objrepo", Path: "/bin/objrepo"},
		{PID: 10, Exec: "objrepo", Path: "/bin/objrepo"},
		{PID: 20, Exec: "gopls", Path: "/bin/gopls"},
		{PID: 42, Exec: "objrepo", Path: "/bin/objrepo"},
	}

	got := filter(all, "objrepo", 42)
	if assert.Len(t, got, 2) {
		assert.Equal(t, 10, got[0].PID)
		assert.Equal(t, 30, got[1].PID)
	}
}

func TestOthersExcludesSelf(t *testing.T) {
	assert.Empty(t, Others("objrepo-process-test-no-such-binary"))
}
