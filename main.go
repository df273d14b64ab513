package main

import "github.com/racetagger/raceident/cmd"

func main() {
	cmd.Execute()
}
