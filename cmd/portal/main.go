package main

import "github.com/goliatone/go-portal/cmd/portal/cmd"

func main() {
	cmd.Execute()
}
