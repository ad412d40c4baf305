package main

import "github.com/brogergvhs/genrescrape/cmd"

func main() {
	cmd.Execute()
}
