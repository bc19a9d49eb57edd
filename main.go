package main

import "github.com/inovacc/objrepo/cmd"

func main() {
	cmd.Execute()
}
