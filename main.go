package main

import (
	"github.com/loxone-community/lox-linein-bridge/cmd"
	"github.com/loxone-community/lox-linein-bridge/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
