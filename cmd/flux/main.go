// Command flux is a headless client for a self-hosted music server: it
// lists the library, manages offline downloads, shows lyrics and play
// history, and runs a playback session exposed over MPRIS.
package main

func main() {
	Execute()
}
