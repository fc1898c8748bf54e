package main

import "github.com/kmswan/glowcast/cmd/glowcast/commands"

func main() {
	commands.Execute()
}
