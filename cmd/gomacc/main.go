package main

import (
	"os"

	gomacc "github.com/goma/gomacc"
)

func main() {
	os.Exit(gomacc.Run(os.Args[1:]))
}
