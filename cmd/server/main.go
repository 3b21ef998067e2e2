// Copyright 2026 The picstash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/picstash-io/picstash/pkg/blobstore"
	"github.com/picstash-io/picstash/pkg/config"
	"github.com/picstash-io/picstash/pkg/cors"
	"github.com/picstash-io/picstash/pkg/fetch"
	"github.com/picstash-io/picstash/pkg/image"
	"github.com/picstash-io/picstash/pkg/image/mongostore"
	"github.com/picstash-io/picstash/pkg/image/pgstore"
	"github.com/picstash-io/picstash/pkg/pslog"
	"github.com/picstash-io/picstash/pkg/render"
	"github.com/picstash-io/picstash/pkg/urlcache"
	"github.com/picstash-io/picstash/pkg/util"
	imageapi "github.com/picstash-io/picstash/service/image"
)

func newImageStore(ctx context.Context, cfg config.StoreConfig) (image.Store, error) {
	switch cfg.Driver {
	case "mongo":
		return mongostore.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres":
		return pgstore.NewStore(ctx, cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown image store driver: %q", cfg.Driver)
}

func main() {
	if err := config.InitConfig(); err != nil {
		pslog.Fatalf("Failed to initialize configuration: %v", err)
	}
	cfg := config.Get()

	level, err := pslog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		pslog.Warnf("%v, falling back to info", err)
	}
	pslog.SetLogger(pslog.NewZapLogger(level))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	blobs, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		pslog.Fatalf("Failed to connect to blob storage: %v", err)
	}

	cache, err := urlcache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		pslog.Fatalf("Failed to connect to redis: %v", err)
	}

	store, err := newImageStore(ctx, cfg.Store)
	if err != nil {
		pslog.Fatalf("Failed to connect to image store: %v", err)
	}

	svc := image.NewService(image.Deps{
		Store:   store,
		Blobs:   blobs,
		Cache:   cache,
		Fetcher: fetch.NewHTTPFetcher(),
	})

	mux := http.NewServeMux()
	imageapi.NewHandler(svc).Register(mux)

	if util.Exist(cfg.Server.TemplateDir) {
		renderer, err := render.NewRenderer(cfg.Server.TemplateDir)
		if err != nil {
			pslog.Fatalf("Failed to load templates: %v", err)
		}
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			page, err := renderer.Render("index.html", map[string]any{"message": "Store images, get serving URLs."})
			if err != nil {
				pslog.Errorf("Failed to render index: %v", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, page)
		})
	} else {
		pslog.Warnf("Template directory %s not found, index page disabled", cfg.Server.TemplateDir)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: cors.NewCORS(cfg.Server.CORSOrigins...).Handler(h2c.NewHandler(mux, &http2.Server{})),
	}

	// Setup graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		pslog.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			pslog.Errorf("Server shutdown error: %v", err)
		}

		pslog.Info("Server shutdown complete")
		os.Exit(0)
	}()

	pslog.Infof("Server starting on %v", cfg.Server.Addr)

	if cfg.Server.CertFile != "" && cfg.Server.KeyFile != "" {
		err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		pslog.Fatalf("Failed to start server: %v", err)
	}
}
