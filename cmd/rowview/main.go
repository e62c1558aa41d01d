package main

import "github.com/user/rowview/internal/cli"

func main() {
	cli.Execute()
}
