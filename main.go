package main

import "github.com/Rorical/comgen/cmd"

func main() {
	cmd.Execute()
}
