package main

import (
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Execute()
}
