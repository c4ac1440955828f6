package main

import (
	"github.com/rubiojr/objcbridge/cmd"
	_ "github.com/rubiojr/objcbridge/objc"
)

var version = "v0.1.0"

func main() {
	cmd.Execute(version)
}
