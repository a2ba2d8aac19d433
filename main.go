package main

import "github.com/caedis/deltaplan/cmd"

func main() {
	cmd.Execute()
}
