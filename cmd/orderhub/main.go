// Package main is the entry point for orderhub.
//
//	@title			orderhub API
//	@version		1.0
//	@description	Order placement and real-time notification API for happy hour beverage ordering.
//	@description	Clients place orders during happy hours; partners receive them live over WebSocket.
//
//	@host		localhost:8090
//	@BasePath	/
//	@schemes	http
//
//	@tag.name			health
//	@tag.description	Health check endpoints
//	@tag.name			orders
//	@tag.description	Order placement, history and status management
package main

import (
	"fmt"
	"os"

	"github.com/happyhours/orderhub/cmd/orderhub/cmd"

	_ "github.com/happyhours/orderhub/api/swagger" // swagger docs
)

// Version information (set by ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, BuildTime, GitCommit)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
