package main

import (
	"log"

	"github.com/msk-earth/payment/config"
)

func main() {

	server, cleanup, err := InitializePaymentService()
	if err != nil {
		log.Fatal(err)
		return
	}
	defer cleanup()

	if err = server.Run(config.ServerStartPort); err != nil {
		log.Println(err.Error())
	}

}
