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

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"

	"famshare/internal/config"
	"famshare/internal/handlers/apiserver"
	appKafka "famshare/internal/kafka"
	"famshare/internal/middleware"
	appRedis "famshare/internal/redis"
	"famshare/internal/services"
	"famshare/internal/storage"
)

func main() {
	// 1. Load configuration.
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Println("API server configuration loaded.")

	// 2. Database.
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("API server database connected.")

	if err := storage.AutoMigrateTables(db); err != nil {
		log.Printf("warning: database migration failed: %v", err)
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
	log.Println("Connected to Redis.")

	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	unreadCache := appRedis.NewRedisUnreadCache(redisClient)

	// 4. Repositories.
	userRepo := storage.NewGormUserRepository(db)
	requestRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	convoRepo := storage.NewGormConversationRepository(db)
	msgRepo := storage.NewGormMessageRepository(db)
	profileRepo := storage.NewGormProfileRepository(db)

	// 5. Kafka producer for the change feed.
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	eventProducer := appKafka.NewEventProducer(kfkProducer, cfg.Kafka.ChatEventsTopic)
	log.Println("Kafka producer initialized (API server).")

	// 6. Services.
	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo)
	graphService := services.NewFriendGraphService(userRepo, requestRepo, friendshipRepo)
	accessService := services.NewAccessService(friendshipRepo, profileRepo)
	convoService := services.NewConversationService(convoRepo, friendshipRepo)
	messageService := services.NewMessageService(msgRepo, convoRepo, eventProducer)
	unreadService := services.NewUnreadService(msgRepo, convoRepo, unreadCache)

	// 7. Handlers.
	authHandler := apiserver.NewAuthHandler(authService, tokenBlacklist)
	userHandler := apiserver.NewUserHandler(userService)
	friendHandler := apiserver.NewFriendHandler(graphService)
	accessHandler := apiserver.NewAccessHandler(accessService)
	convoHandler := apiserver.NewConversationHandler(convoService)
	messageHandler := apiserver.NewMessageHandler(messageService, unreadService)

	// 8. Routes.
	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth, tokenBlacklist)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// Users.
	apiRouter.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsers).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userID}", userHandler.GetUser).Methods(http.MethodGet)

	// Friend graph.
	apiRouter.HandleFunc("/friends", friendHandler.ListFriends).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friendships/{friendshipID}/role", friendHandler.UpdateFriendshipRole).Methods(http.MethodPut)
	apiRouter.HandleFunc("/friendships/{friendshipID}", friendHandler.RemoveFriendship).Methods(http.MethodDelete)

	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("", friendHandler.SendFriendRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/pending", friendHandler.ListPendingRequests).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{requestID}/accept", friendHandler.AcceptFriendRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID}/decline", friendHandler.DeclineFriendRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID}", friendHandler.CancelFriendRequest).Methods(http.MethodDelete)

	// Calendar visibility.
	apiRouter.HandleFunc("/access/profiles", accessHandler.VisibleProfiles).Methods(http.MethodGet)
	apiRouter.HandleFunc("/access/events", accessHandler.VisibleEvents).Methods(http.MethodGet)

	// Conversations and messages.
	apiRouter.HandleFunc("/conversations", convoHandler.ListConversations).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations", convoHandler.GetOrCreate).Methods(http.MethodPost)
	apiRouter.HandleFunc("/conversations/{conversationID}", convoHandler.GetConversation).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{conversationID}/messages", messageHandler.ListMessages).Methods(http.MethodGet)
	apiRouter.HandleFunc("/conversations/{conversationID}/messages", messageHandler.SendMessage).Methods(http.MethodPost)
	apiRouter.HandleFunc("/conversations/{conversationID}/read", messageHandler.MarkConversationRead).Methods(http.MethodPost)
	apiRouter.HandleFunc("/conversations/{conversationID}/unread", messageHandler.UnreadCount).Methods(http.MethodGet)
	apiRouter.HandleFunc("/unread", messageHandler.TotalUnread).Methods(http.MethodGet)

	// 9. HTTP server with CORS and graceful shutdown.
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping API server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server forced to shut down: %v", err)
	}

	log.Println("API server stopped.")
}
