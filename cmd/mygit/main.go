package main

import "github.com/javanhut/mygit/cli"

func main() {
	cli.Execute()
}
