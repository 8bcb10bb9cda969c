// Command token issues a signed credential for local testing.
//
//	JWT_KEY=secret go run ./cmd/token -user alice -ttl 24h
package main

import (
	"chat-dm/auth"
	"chat-dm/domain"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	JwtKey string `env:"JWT_KEY,required=true"`
	Issuer string `env:"JWT_ISSUER,default=chat-dm"`
}

func main() {
	user := flag.String("user", "", "Identity to put in the userId claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *user == "" {
		log.Fatal("-user is required")
	}

	token, err := auth.NewSigner(config.JwtKey, config.Issuer).Issue(domain.Identity(*user), *ttl)
	if err != nil {
		log.Fatalf("Token not issued: %v", err)
	}
	fmt.Println(token)
}
