package main

import "imgconvert/cmd"

func main() {
	cmd.Execute()
}
