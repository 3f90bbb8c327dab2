package main

import "github.com/recvault/recvault/internal/cli"

func main() {
	cli.Execute()
}
