package main

import "github.com/devidw/rem/cmd"

func main() {
	cmd.Execute()
}
