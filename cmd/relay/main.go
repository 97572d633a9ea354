// cmd/relay/main.go
//
// Entry point for the relay CLI. Running `relay` with no subcommand plays
// the configured journey in the terminal.

package main

func main() {
	Execute()
}
