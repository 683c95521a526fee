package main

import "github.com/tatianab/truth-eroder/internal/cli"

func main() {
	cli.Execute()
}
