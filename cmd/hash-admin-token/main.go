package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Reads an admin token from the first argument or stdin and prints the
// ADMIN_TOKEN_HASH line for .env
func main() {
	var token string
	if len(os.Args) > 1 {
		token = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("Failed to read token: %v", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if len(token) < 16 {
		log.Fatalf("Token must be at least 16 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash token: %v", err)
	}

	// Single quotes stop godotenv from expanding the $ segments of the hash
	fmt.Printf("ADMIN_TOKEN_HASH='%s'\n", hash)
}
