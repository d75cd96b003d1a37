package main

import (
	"context"

	"go.uber.org/zap"

	auctionapp "github.com/hammerdown/auctionhouse/internal/auction/application"
	auctionhttp "github.com/hammerdown/auctionhouse/internal/auction/infra/http"
	auctionrepo "github.com/hammerdown/auctionhouse/internal/auction/infra/repository/postgres"
	auctionws "github.com/hammerdown/auctionhouse/internal/auction/infra/websocket"
	ledgerapp "github.com/hammerdown/auctionhouse/internal/ledger/application"
	ledgerhttp "github.com/hammerdown/auctionhouse/internal/ledger/infra/http"
	ledgerrepo "github.com/hammerdown/auctionhouse/internal/ledger/infra/repository/postgres"
	"github.com/hammerdown/auctionhouse/internal/shared/clock"
	"github.com/hammerdown/auctionhouse/internal/shared/config"
	"github.com/hammerdown/auctionhouse/internal/shared/db"
	"github.com/hammerdown/auctionhouse/internal/shared/db/migrations"
	"github.com/hammerdown/auctionhouse/internal/shared/httpserver"
	"github.com/hammerdown/auctionhouse/internal/shared/logger"
	sharedws "github.com/hammerdown/auctionhouse/internal/shared/websocket"
	userapp "github.com/hammerdown/auctionhouse/internal/user/application"
	userhttp "github.com/hammerdown/auctionhouse/internal/user/infra/http"
	userrepo "github.com/hammerdown/auctionhouse/internal/user/infra/repository/postgres"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting auction house server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error", zap.Error(err))
	}

	log.Info("Running database migrations...")
	if err := migrations.Run(cfg.MigrationsPath, cfg.PostgresDSN()); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.PostgresDSN())
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	txm := db.NewPoolTxManager(pool)
	clk := clock.System{}

	auctions := auctionrepo.NewAuctionRepository(pool)
	bids := auctionrepo.NewBidRepository(pool)
	accounts := ledgerrepo.NewAccountRepository(pool)
	users := userrepo.NewUserRepository(pool)

	hub := sharedws.NewHub()
	go hub.Run(ctx)

	ledgerSvc := ledgerapp.NewLedgerService(txm, accounts)
	authSvc := userapp.NewAuthService(txm, users, cfg.JWTSecret, clk)
	auctionSvc := auctionapp.NewService(txm, auctions, bids, accounts, users, ledgerSvc, clk, hub)

	go auctionSvc.RunExpirySweeper(ctx, cfg.SweepInterval)

	server := httpserver.NewServer()
	registerRoutes(server, authSvc, auctionSvc, ledgerSvc, users, hub)

	if err := server.Start(cfg.ServerAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}

func registerRoutes(
	server *httpserver.Server,
	authSvc *userapp.AuthService,
	auctionSvc *auctionapp.Service,
	ledgerSvc *ledgerapp.LedgerService,
	users *userrepo.UserRepository,
	hub *sharedws.Hub,
) {
	app := server.App()

	authHandler := userhttp.NewAuthHandler(authSvc)
	auctionHandler := auctionhttp.NewAuctionHandler(auctionSvc)
	ledgerHandler := ledgerhttp.NewLedgerHandler(ledgerSvc, users)

	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)

	authed := app.Group("", userhttp.RequireAuth(authSvc))
	authed.Post("/create_listing", auctionHandler.CreateListing)
	authed.Post("/edit_listing", auctionHandler.EditListing)
	authed.Post("/make_live", auctionHandler.MakeLive)
	authed.Post("/place_bid", auctionHandler.PlaceBid)
	authed.Post("/end_auction", auctionHandler.EndAuction)
	authed.Post("/delete_listing", auctionHandler.DeleteListing)
	authed.Get("/my_listings", auctionHandler.MyListings)
	authed.Get("/live", auctionHandler.Live)
	authed.Get("/upcoming", auctionHandler.Upcoming)
	authed.Get("/auction_result", auctionHandler.AuctionResult)
	authed.Post("/deposit", ledgerHandler.Deposit)
	authed.Post("/withdraw", ledgerHandler.Withdraw)
	authed.Get("/profile", ledgerHandler.Profile)

	app.Use("/ws/auctions/:id", auctionws.Upgrade)
	app.Get("/ws/auctions/:id", auctionws.FeedHandler(hub))
}
