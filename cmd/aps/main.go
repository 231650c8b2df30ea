package main

import (
	"github.com/lfeng/aps/pkg/interfaces/cli/commands"
)

func main() {
	commands.Execute()
}
