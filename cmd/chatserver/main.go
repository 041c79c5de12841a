package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisDriver "github.com/redis/go-redis/v9"

	"famshare/internal/config"
	"famshare/internal/feed"
	"famshare/internal/handlers/chatserver"
	appKafka "famshare/internal/kafka"
	kafkahandlers "famshare/internal/kafka/handlers"
	appRedis "famshare/internal/redis"
	"famshare/internal/services"
	"famshare/internal/storage"
	"famshare/internal/websocket"
)

func main() {
	// 1. Load configuration.
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Println("Chat server configuration loaded.")

	// 2. Database.
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Chat server database connected.")

	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("failed to migrate database tables: %v", err)
	}

	// 3. Redis.
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	unreadCache := appRedis.NewRedisUnreadCache(redisClient)

	// 4. Repositories and services.
	msgRepo := storage.NewGormMessageRepository(db)
	convoRepo := storage.NewGormConversationRepository(db)

	// Mark-read commands arriving over websocket are persisted and published
	// back through Kafka like any API write.
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	eventProducer := appKafka.NewEventProducer(kfkProducer, cfg.Kafka.ChatEventsTopic)

	messageService := services.NewMessageService(msgRepo, convoRepo, eventProducer)
	unreadService := services.NewUnreadService(msgRepo, convoRepo, unreadCache)

	// 5. Hubs: websocket connections plus the in-process change feed.
	wsHub := websocket.NewHub()
	go wsHub.Run()

	feedHub := feed.NewHub()
	feedCtx, cancelFeed := context.WithCancel(context.Background())
	defer cancelFeed()
	go feedHub.Run(feedCtx)
	log.Println("WebSocket and feed hubs started.")

	// 6. Kafka consumer feeding both hubs and the unread tracker.
	consumerLogic := kafkahandlers.NewChatEventConsumerLogic(feedHub, wsHub, convoRepo, unreadService)

	eventConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("failed to create Kafka consumer: %v", err)
	}
	defer eventConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	go func() {
		topics := []string{cfg.Kafka.ChatEventsTopic}
		log.Printf("Kafka chat event consumer starting, topic %s, group %s", cfg.Kafka.ChatEventsTopic, cfg.Kafka.ConsumerGroup)
		if err := eventConsumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup, consumerLogic.HandleChatEvent); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Kafka chat event consumer error: %v", err)
		}
		log.Println("Kafka chat event consumer stopped.")
	}()

	// 7. WebSocket endpoint.
	wsHandler := chatserver.NewWebSocketHandler(wsHub, messageService, unreadService, tokenBlacklist, cfg)

	httpMux := http.NewServeMux()
	httpMux.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	// No read/write timeouts here, they would tear down long-lived
	// websocket connections.
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        httpMux,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Printf("Chat server listening on %s, websocket path %s", serverAddr, cfg.Server.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Chat server failed: %v", err)
		}
	}()

	// 8. Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping chat server...")

	cancelConsumers()
	cancelFeed()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Chat server forced to shut down: %v", err)
	}
	log.Println("Chat server stopped.")
}
