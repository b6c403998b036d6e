package main

import "github.com/theirongolddev/taxgame/cmd"

func main() {
	cmd.Execute()
}
