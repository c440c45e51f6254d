package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/auth/jwtverifier"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/config"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/logging"
)

// Dev-only HS256 token issuer.
//
// It signs with the same JWT_SECRET/JWT_ISSUER/JWT_AUDIENCE the API verifies with, so a
// local stack can run with AUTH_MODE=jwt. Either print one token:
//
//	devjwt -sub desk|alice
//
// or serve GET /token?sub=desk|alice with -serve.

func main() {
	var (
		sub   = flag.String("sub", "", "subject to mint a single token for")
		ttl   = flag.Duration("ttl", 30*time.Minute, "token lifetime")
		serve = flag.Bool("serve", false, "serve /token instead of printing one token")
		port  = flag.String("port", "5556", "listen port with -serve")
	)
	flag.Parse()

	logger := logging.New(os.Stderr, "info", "text")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jwtCfg := cfg.Auth.JWT
	if jwtCfg.Secret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	if !*serve {
		if strings.TrimSpace(*sub) == "" {
			logger.Error("missing -sub")
			os.Exit(2)
		}
		tok, err := jwtverifier.Sign(jwtCfg, *sub, time.Now().UTC(), *ttl)
		if err != nil {
			logger.Error("sign", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// Mint a JWT:
	//   GET /token?sub=desk|alice
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		s := strings.TrimSpace(r.URL.Query().Get("sub"))
		if s == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		tok, err := jwtverifier.Sign(jwtCfg, s, now, *ttl)
		if err != nil {
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": tok,
			"sub":   s,
			"iss":   jwtCfg.Issuer,
			"aud":   jwtCfg.Audience,
			"exp":   now.Add(*ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("devjwt listening", slog.String("addr", srv.Addr), slog.String("iss", jwtCfg.Issuer), slog.String("aud", jwtCfg.Audience), slog.Duration("ttl", *ttl))
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("listen", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
