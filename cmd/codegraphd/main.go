package main

import "github.com/codegraphd/codegraphd/cmd"

func main() {
	cmd.Execute()
}
