package main

import "explab/internal/app"

func main() {
	app.Run()
}
