package main

import (
	"log"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/shelby2770/testsso/adapters/events"
	"github.com/shelby2770/testsso/adapters/tokenizer"
	"github.com/shelby2770/testsso/server"
	"github.com/shelby2770/testsso/transport/http"
)

func main() {
	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	cfg := server.LoadConfigFromEnv()
	logger := watermill.NewStdLogger(false, false)

	memory := server.NewMemoryStore()
	challenges := server.ChallengeStore(memory)

	var publisher message.Publisher
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		challenges = server.NewRedisChallengeStore(redisClient, cfg.ChallengeTTL)
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, logger)
	}

	jwtTokenizer := tokenizer.NewJWTTokenizer(privateKey)
	eventPub := events.NewWatermillPublisher(publisher)

	ssoService, err := server.New(cfg, memory, memory, challenges, jwtTokenizer, eventPub)
	if err != nil {
		log.Fatalf("Failed to create SSO service: %v", err)
	}

	// Setup Gin router
	router := http.SetupRouter(ssoService, jwtTokenizer)

	// Start server
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
