package main

import "github.com/bensuskins/planner/internal/cli"

func main() {
	cli.Execute()
}
