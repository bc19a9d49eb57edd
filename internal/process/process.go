// Package process finds other running objrepo binaries. A bolt store stays
// locked by the process holding it open, so these are the usual reason an
// open times out.
package process

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/gops/goprocess"
)

type Process struct {
	PID  int
	Exec string
	Path string
}

// Others returns the running Go processes whose executable is name,
// excluding the current one, ordered by PID.
func Others(name string) []Process {
	return filter(goprocess.FindAll(), name, os.Getpid())
}

func filter(all []goprocess.P, name string, self int) []Process {
	var out []Process

	for _, p := range all {
		if p.PID == self || !matches(p.Exec, p.Path, name) {
			continue
		}

		out = append(out, Process{PID: p.PID, Exec: p.Exec, Path: p.Path})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })

	return out
}

func matches(exec, path, name string) bool {
	name = strings.ToLower(name)

	for _, s := range []string{exec, filepath.Base(path)} {
		if strings.TrimSuffix(strings.ToLower(s), ".exe") == name {
			return true
		}
	}

	return false
}
