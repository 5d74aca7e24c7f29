package main

import "github.com/Quidge/webfeatures/cmd"

func main() {
	cmd.Execute()
}
