package main

import "github.com/Log-Tools/event-canary/internal/cli"

func main() {
	cli.Execute()
}
