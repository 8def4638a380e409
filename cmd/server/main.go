package main

import (
	"context"
	"time"

	"go-pos-billing/internal/ai"
	"go-pos-billing/internal/auth"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/document"
	"go-pos-billing/internal/handlers"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/parties"
	"go-pos-billing/internal/payments"
	"go-pos-billing/internal/reports"
	"go-pos-billing/internal/settings"
	"go-pos-billing/internal/stockledger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Config failed: %v", err)
	}
	logg := config.NewLogger(cfg)
	for _, w := range cfg.Warnings() {
		logg.Warn(w)
	}

	store, err := database.Open(context.Background(), database.OptionsFromConfig(cfg), logg)
	if err != nil {
		logg.WithError(err).Fatal("Database failed to open")
	}
	defer store.Close()

	// --- Services ---
	cfgSvc := settings.New(store, logg)
	engine := billing.New(store, cfgSvc, logg)
	cat := catalog.New(store, cfgSvc, logg)
	rep := reports.New(store, cfgSvc, logg)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, models.SystemClock)

	h := &handlers.Handler{
		Users:     auth.NewUsers(store, tokens, logg),
		Settings:  cfgSvc,
		Catalog:   cat,
		Parties:   parties.New(store, logg),
		Ledger:    stockledger.New(store, logg),
		Billing:   engine,
		Payments:  payments.New(store, cfgSvc, logg),
		Reports:   rep,
		Documents: document.New(store, cfgSvc, engine, logg),
		Log:       logg,
	}
	if cfg.GeminiAPIKey != "" {
		h.Assistant = ai.NewAgent(cfg.GeminiAPIKey, cfg.GeminiModel, &ai.Tools{Catalog: cat, Reports: rep}, models.SystemClock, logg)
	} else {
		logg.Info("GEMINI_API_KEY not set; /api/ask is disabled")
	}

	r := gin.Default()

	// --- The Bridge Configuration ---
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.Routes(r, h, tokens, cfg.AllowRegistration)
	if cfg.AllowRegistration {
		logg.Warn("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		logg.Info("🔒 Registration route is safely DISABLED.")
	}

	// --- DEPLOYMENT: Serve the React Frontend ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	// SPA Catch-All: If the user refreshes on "/dashboard",
	// serve index.html so React can handle the routing.
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	logg.Info("🚀 Server starting on " + cfg.BaseURL)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logg.WithError(err).Fatal("Server failed to start")
	}
}
