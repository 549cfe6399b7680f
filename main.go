package main

import "github.com/slipangle/rallyarcade/cmd"

func main() {
	cmd.Execute()
}
