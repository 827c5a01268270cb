package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/pkg/auth"
)

func main() {
	operator := flag.String("operator", "", "operator id (random when empty)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is not set")
	}

	operatorID := uuid.New()
	if *operator != "" {
		operatorID, err = uuid.Parse(*operator)
		if err != nil {
			log.Fatalf("invalid operator id: %v", err)
		}
	}

	token, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan).GenerateToken(operatorID)
	if err != nil {
		log.Fatalf("cannot sign token: %v", err)
	}

	fmt.Printf("operator: %s\n", operatorID)
	fmt.Println(token)
}
