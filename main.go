package main

import "github.com/lockforge/lockd/cmd"

func main() {
	cmd.Execute()
}
