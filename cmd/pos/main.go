package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mesapos/mesapos/internal/config"
	"github.com/mesapos/mesapos/internal/httpserver"
	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/notify"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/search"
	"github.com/mesapos/mesapos/internal/service"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, "pos")
	ctx := logging.IntoContext(context.Background(), logger)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rp := &repo.GormRepo{DB: db}

	hub := notify.NewHub()
	dispatchers := notify.Multi{hub}
	var kafkaDispatcher *notify.KafkaDispatcher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaDispatcher = notify.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		dispatchers = append(dispatchers, kafkaDispatcher)
	}

	var searchClient *search.Client
	if cfg.ESURL != "" {
		searchClient, err = search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		}
	}

	inventorySvc := &service.InventoryService{Repo: rp, Dispatcher: dispatchers}
	orderSvc := &service.OrderService{Repo: rp, Dispatcher: dispatchers}
	paymentSvc := &service.PaymentService{Repo: rp, Inventory: inventorySvc, Dispatcher: dispatchers}
	tableSvc := &service.TableService{Repo: rp}
	shiftSvc := &service.ShiftService{Repo: rp}
	authSvc := &service.AuthService{Repo: rp, JWTSecret: cfg.JWTSecret}
	catalogSvc := &service.CatalogService{Repo: rp, Search: searchClient}

	httpserver.Register(e, &httpserver.Deps{
		Auth:      &httpserver.AuthMiddleware{JWTSecret: cfg.JWTSecret, Repo: rp},
		AuthH:     &httpserver.AuthHTTP{Svc: authSvc},
		Orders:    &httpserver.OrderHTTP{Svc: orderSvc},
		Payments:  &httpserver.PaymentHTTP{Svc: paymentSvc},
		Tables:    &httpserver.TableHTTP{Svc: tableSvc},
		Catalog:   &httpserver.CatalogHTTP{Svc: catalogSvc},
		Inventory: &httpserver.InventoryHTTP{Svc: inventorySvc},
		Shifts:    &httpserver.ShiftHTTP{Svc: shiftSvc},
		Events:    &httpserver.EventsHTTP{Hub: hub},
	})

	go func() {
		logger.Info("starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if kafkaDispatcher != nil {
		if err := kafkaDispatcher.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("stopped")
}
