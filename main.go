package main

import "github.com/pders01/snapback/cmd"

func main() {
	cmd.Execute()
}
