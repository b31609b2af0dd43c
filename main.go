package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"study-cache/internal/cache"
	"study-cache/internal/config"
	"study-cache/internal/devicestore"
	"study-cache/internal/handlers"
	"study-cache/internal/middleware"
	"study-cache/internal/models"
	"study-cache/internal/observability"
	"study-cache/internal/rabbitmq"
	"study-cache/internal/remote"
	"study-cache/internal/syncer"
	"study-cache/internal/telemetry"
	"study-cache/internal/ws"
)

func main() {
	cfg := config.Load()

	store, err := devicestore.OpenBolt(cfg.StorePath)
	if err != nil {
		log.Fatalf("failed to open device store: %v", err)
	}
	defer store.Close()

	tokens := remote.NewStoreTokenSource(store)
	api := remote.NewClient(cfg.BackendURL, tokens, nil)

	chats := cache.NewChats(store)
	sessions := cache.NewSessions(store)
	identity := cache.NewIdentity(store)
	feed := cache.NewFeed(store, api, cfg.NotificationTTL)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "audit.study_cache", "study-cache", cfg.Environment)
	if eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	hub := ws.NewHub()
	refresher := cache.NewChatRefresher(chats, api, func(groupID string, chat models.GroupChat) {
		hub.Broadcast(groupID, models.ChatEvent{Type: "refresh", GroupID: groupID})
	})
	groupPoller := syncer.NewGroupPoller(cfg.ChatPollInterval, refresher.Refresh)
	defer groupPoller.StopAll()

	notificationPoll := syncer.New("notifications", cfg.NotificationPollInterval, func(ctx context.Context) error {
		_, err := feed.Refresh(ctx)
		return err
	})
	notificationPoll.Start()
	defer notificationPoll.Stop()

	chatHandler := handlers.NewChatHandler(chats, identity, api, hub, audit)
	sessionHandler := handlers.NewSessionHandler(sessions, chats, identity, hub, audit)
	notificationHandler := handlers.NewNotificationHandler(feed, api, audit)
	accountHandler := handlers.NewAccountHandler(store, identity, api, audit, chats, sessions, feed)
	subscribeWS := ws.NewSubscribeHandler(hub, identity, groupPoller)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	guard := middleware.LocalAuth(cfg.LocalAuthToken)

	router.GET("/groups", guard, accountHandler.ListGroups)
	router.PUT("/session", guard, accountHandler.PutSession)
	router.POST("/logout", guard, accountHandler.Logout)

	router.GET("/groups/:group_id/chat", guard, chatHandler.GetGroupChat)
	router.POST("/groups/:group_id/messages", guard, chatHandler.PostMessage)
	router.POST("/groups/:group_id/messages/:message_id/reactions", guard, chatHandler.ToggleReaction)
	router.POST("/groups/:group_id/read", guard, chatHandler.MarkRead)

	router.POST("/groups/:group_id/sessions", guard, sessionHandler.CreateSession)
	router.GET("/groups/:group_id/sessions", guard, sessionHandler.ListSessions)

	router.GET("/notifications", guard, notificationHandler.GetNotifications)
	router.POST("/notifications/:notification_id/read", guard, notificationHandler.MarkRead)
	router.POST("/groups/:group_id/requests/:requester_id/:action", guard, notificationHandler.ResolveJoinRequest)
	router.POST("/friends/requests/:request_id/:action", guard, notificationHandler.ResolveFriendRequest)

	router.GET("/ws/groups/:group_id", subscribeWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	log.Printf("cache sidecar listening on %s (backend %s, amqp %s)", cfg.ListenAddr, cfg.BackendURL, rabbitmq.PublisherMode(publisher))
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
