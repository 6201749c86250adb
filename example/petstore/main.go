// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"log/slog"
	"os"

	"github.com/z5labs/courier"
	"github.com/z5labs/courier/example/petstore/petstore"
)

//go:embed config.yaml
var configBytes []byte

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	err := run(context.Background(), log)
	if err != nil {
		log.Error("failed to run pet store client", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	c, err := courier.NewFromConfig(
		bytes.NewReader(configBytes),
		courier.WithConverterFactory(courier.Json()),
		courier.WithInterceptor(courier.RequestID()),
	)
	if err != nil {
		return err
	}

	store, err := petstore.NewClient(c)
	if err != nil {
		return err
	}

	added, err := store.Add(ctx, petstore.Pet{
		Name:   "scout",
		Status: "available",
	})
	if err != nil {
		return err
	}
	log.Info("added pet", slog.Int64("id", added.ID))

	found, err := store.Find(ctx, added.ID)
	if err != nil {
		return err
	}
	log.Info("found pet", slog.Int64("id", found.ID), slog.String("name", found.Name))

	pets, err := store.List(ctx, "available")
	if err != nil {
		return err
	}
	log.Info("listed pets", slog.Int("count", len(pets)))

	return store.Delete(ctx, added.ID)
}
