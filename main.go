package main

import "github.com/carepoint/scheduling-api/cmd"

func main() {
	cmd.Execute()
}
