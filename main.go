package main

import "moodmusic/cmd"

func main() {
	cmd.Execute()
}
