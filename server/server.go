package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/msk-earth/payment/config"
	"github.com/msk-earth/payment/handlers"
)

type Server struct {
	echo     *echo.Echo
	Checkout handlers.CheckoutHandler
	Donation handlers.DonationHandler
	PayU     handlers.PayUHandler
	Webhook  handlers.WebhookHandler

	allowedOrigins []string
}

func NewServer(
	cfg *config.Config,
	Checkout handlers.CheckoutHandler,
	Donation handlers.DonationHandler,
	PayU handlers.PayUHandler,
	Webhook handlers.WebhookHandler,
) *Server {
	return &Server{
		echo:           echo.New(),
		Checkout:       Checkout,
		Donation:       Donation,
		PayU:           PayU,
		Webhook:        Webhook,
		allowedOrigins: cfg.Site.AllowedOrigins,
	}
}

// Start initializes the server by registering middlewares and routes, and starts listening for connections on the provided address.
// It returns an error if there is an issue starting the server.
func (s *Server) Start(address string) error {
	s.registerMiddlewares()
	s.registerRoutes()
	return s.echo.Start(address)
}

// Run starts the server in a goroutine and blocks until an interrupt or
// SIGTERM arrives, then shuts down with a 5 second grace period.
func (s *Server) Run(address string) error {

	go func() {
		if err := s.Start(address); err != nil {
			s.echo.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  s.allowOrigin,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
}

// allowOrigin admits the configured site origins, the Google Sites embeds the
// donation widget lives in, and localhost dev servers.
func (s *Server) allowOrigin(origin string) (bool, error) {
	for _, allowed := range s.allowedOrigins {
		if origin == allowed {
			return true, nil
		}
	}
	if strings.Contains(origin, "google.com") {
		return true, nil
	}
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
		return true, nil
	}
	return false, nil
}

func (s *Server) registerRoutes() {

	s.echo.POST("/api/create-checkout-session", s.Checkout.CreateCheckoutSession)
	s.echo.POST("/api/stripe-webhook", s.Webhook.HandleStripeWebhook)

	s.echo.POST("/api/donations", s.Donation.CreateDonation)
	s.echo.GET("/api/donations/stats", s.Donation.GetStats)

	s.echo.POST("/api/payments/create-order", s.PayU.CreateOrder)
	s.echo.POST("/api/payments/notify", s.PayU.HandleNotify)

	s.echo.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}
