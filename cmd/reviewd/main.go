package main

import (
	"flag"
	"log"
	"net/http"
	"strings"
	"time"

	"rentalintel/internal/config"
	"rentalintel/internal/dispatch"
	"rentalintel/internal/review"
	"rentalintel/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	port := flag.String("port", ":8082", "listen address")
	dir := flag.String("store", cfg.StoreDir, "report store directory")
	flag.Parse()
	if !strings.HasPrefix(*port, ":") {
		*port = ":" + *port
	}

	st := store.NewFromEnv(*dir)
	defer st.Close()

	queue := review.NewQueue()
	n, err := review.LoadPending(st, queue)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d pending actions from stored reports", n)

	srv := &review.Server{
		Queue: queue,
		Dispatcher: &dispatch.Dispatcher{
			Rules:          dispatch.DefaultRules(),
			Executors:      dispatch.SimulatedExecutors(log.Default()),
			AutoExecutable: dispatch.DefaultAutoExecutable(),
			AutoThreshold:  cfg.AutoThreshold,
		},
		Store: st,
		Hub:   review.NewHub(),
	}

	httpSrv := &http.Server{
		Addr:              *port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("review server listening on %s (env=%s)", *port, cfg.Env)
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
