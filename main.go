// Package main provides the entry point for the spotseed application.
package main

import cmd "github.com/toozej/spotseed/cmd/spotseed"

func main() {
	cmd.Execute()
}
