package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/smarttransit/route-ledger/internal/utils"
)

func main() {
	password := flag.String("admin-password", "", "admin password to hash for ADMIN_PASSWORD_HASH")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("Secret Generator for the route ledger")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateSecret(32) // 256-bit
	if err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)

	if *password != "" {
		hash, err := utils.HashPassword(*password)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		// single quotes keep the $ signs of the hash literal in .env files
		fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)
	} else {
		fmt.Println()
		fmt.Println("Pass -admin-password to also generate ADMIN_PASSWORD_HASH.")
	}

	fmt.Println()
	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
