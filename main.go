package main

import (
	"math/rand"
	"time"

	"github.com/luma/keep/cmd"
)

func main() {
	// The per-session user id comes from math/rand.
	rand.Seed(time.Now().UnixNano())

	cmd.Execute()
}
