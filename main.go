package main

import "github.com/naka-gawa/repo-trends/cmd"

func main() {
	cmd.Execute()
}
