package main

import "github.com/voicemedia/go-voicemedia/cmd"

func main() {
	cmd.Execute()
}
