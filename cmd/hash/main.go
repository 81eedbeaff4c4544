// Package main is a utility for generating bcrypt hashes of admin passwords.
// The platform stores only bcrypt hashes of admin credentials, never the raw
// passwords, so this tool is used when manually seeding admin_users records
// in the database without running the full server:
//
//	go run ./cmd/hash 's3cret-password'
//	INSERT INTO admin_users (id, username, password_hash, created_at)
//	VALUES (gen_random_uuid(), 'admin', '<hash>', NOW());
package main

import (
	"fmt"
	"os"

	"github.com/xteam-pro/audit-platform/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(hash)
}
