package main

import "campusreach/cmd/ambctl/cmd"

func main() {
	cmd.Execute()
}
