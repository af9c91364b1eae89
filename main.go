package main

import "github.com/fleetdash/fleetdash/cmd"

func main() {
	cmd.Execute()
}
