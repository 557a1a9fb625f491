//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/msk-earth/payment"
	"github.com/msk-earth/payment/config"
	"github.com/msk-earth/payment/donation"
	"github.com/msk-earth/payment/driver"
	"github.com/msk-earth/payment/event"
	"github.com/msk-earth/payment/handlers"
	"github.com/msk-earth/payment/server"
)

func InitializePaymentService() (*server.Server, func(), error) {

	wire.Build(
		config.ProvideApplicationConfig,
		config.NewLogger,
		config.ProvidePostgresConn,
		config.ProvideRedis,
		config.ProvideNatsConn,
		driver.NewTransactionManager,
		donation.NewRepository,
		donation.NewService,
		event.NewRepository,
		event.NewService,
		payment.NewEventManager,
		payment.NewStripePayment,
		payment.NewPayUGateway,
		handlers.NewCheckoutHandler,
		handlers.NewDonationHandler,
		handlers.NewPayUHandler,
		handlers.NewWebhookHandler,
		server.NewServer,
	)

	return &server.Server{}, nil, nil
}
