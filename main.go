package main

import (
	"os"

	"github.com/wisplang/wisp/cmd"
)

func main() {
	os.Exit(cmd.NewApp().Main(os.Args[1:]))
}
