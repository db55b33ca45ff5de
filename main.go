package main

import "github.com/HaiFongPan/r2drive/cmd"

func main() {
	cmd.Execute()
}
