package main

import (
	"os"

	"github.com/vitte-ai/vitte-chat/chatservice"
)

func main() {
	if err := chatservice.Run(); err != nil {
		os.Exit(1)
	}
}
