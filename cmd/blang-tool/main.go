package main

import "blang-tool/internal/cli"

func main() {
	cli.Execute()
}
