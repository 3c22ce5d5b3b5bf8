package main

import "github.com/afrilearn/afriserver/cmd"

func main() {
	cmd.Execute()
}
