package main

import "github.com/mcoot/guildtracker/internal/cli"

func main() {
	cli.Execute()
}
