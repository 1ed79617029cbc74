package main

import "github.com/Togather-Foundation/eventcal/cmd/server/cmd"

func main() {
	cmd.Execute()
}
