package main

import "github.com/bryanchriswhite/WindowShot/cmd/windowshot/commands"

func main() {
	commands.Execute()
}
