package main

import (
	"github.com/procflow/simkernel/cmd"
)

func main() {
	cmd.Execute()
}
