package main

import "thoreinstein.com/flightcheck/cmd"

func main() {
	cmd.Execute()
}
