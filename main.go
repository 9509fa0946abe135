package main

import "DanceDeck/cmd"

func main() {
	cmd.Execute()
}
