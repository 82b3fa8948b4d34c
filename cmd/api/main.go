package main

import (
	"fortuna/internal/server"
)

func main() {
	server.ApiInit()
}
