package main

import (
	"context"
	"flag"
	"time"

	"github.com/crewsync/crewsync/internal/engine/bootstrap"
	"github.com/crewsync/crewsync/internal/engine/conf"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/shutdown"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. -conf conf.d/config.toml")
}

func main() {
	flag.Parse()

	appConf := conf.NewConf(configFile)
	log.MustInit(&appConf.Log)

	ctx := context.Background()
	app, err := bootstrap.New(ctx, appConf)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if err := app.Start(ctx); err != nil {
		log.Fatalf("start: %v", err)
	}

	mgr := shutdown.NewManager()
	mgr.HandleSignals()
	<-mgr.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	app.Stop(stopCtx)
}
