package main

import "github.com/bananalabs-oss/flipswrap/cmd"

func main() {
	cmd.Execute()
}
