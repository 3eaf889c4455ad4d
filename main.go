// Package main is the entry point for the nrlstats CLI tool, which scrapes NRL fantasy
// match-centre pages into a single per-player stats table.
package main

import "github.com/pable/go-nrl-stats/cmd"

func main() {
	cmd.Execute()
}
