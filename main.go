package main

import "serial-maze/cmd"

func main() {
	cmd.Execute()
}
