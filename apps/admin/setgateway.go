package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kelasi/backend/core/payment/gateway"
)

// setGateway switches the active payment provider, creating the config
// document on first use. Keys are managed over the API.
func (cli *commandLine) setGateway(provider gateway.Provider) error {
	ctx := context.Background()

	conf, err := cli.gwRepo.GetConfig(ctx)
	switch errors.Cause(err) {
	case nil:
	case gateway.ErrConfigNotFound:
		conf = gateway.Config{Currency: gateway.DefaultCurrency}
	default:
		return err
	}

	conf.ActiveProvider = provider
	_, err = cli.gwRepo.SaveConfig(ctx, conf)
	return err
}
