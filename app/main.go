package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogreplay/app/api"
	"blogreplay/app/blog"
	"blogreplay/app/cfg"
	"blogreplay/app/config"
	"blogreplay/app/database"
	"blogreplay/app/feed"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appConfig, args, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	feedRepo := database.NewFeedRepository(db)
	entryRepo := database.NewEntryRepository(db)

	command, rest := args[0], args[1:]
	switch command {
	case "scrape":
		if len(rest) != 1 {
			usage()
			os.Exit(2)
		}
		requireFeedURLBase(appConfig)
		client := blog.NewClient(appConfig.UserAgent)
		if err := scrape(client, entryRepo, rest[0]); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}

	case "scrape-all":
		requireFeedURLBase(appConfig)
		list, err := config.NewLoader(appConfig.BlogsFile).Load()
		if err != nil {
			log.Fatalf("Failed to load blog list: %v", err)
		}
		log.Printf("Scraping %d blogs from %s", len(list.Blogs), appConfig.BlogsFile)
		client := blog.NewClient(appConfig.UserAgent)
		for _, b := range list.Blogs {
			if err := scrape(client, entryRepo, b.URL); err != nil {
				log.Fatalf("Scrape failed for %s: %v", b.URL, err)
			}
		}

	case "generate":
		materializer := feed.NewMaterializer(feedRepo, entryRepo)
		if err := generate(feedRepo, materializer, rest); err != nil {
			log.Fatalf("Generate failed: %v", err)
		}

	case "list":
		if err := listFeeds(feedRepo, entryRepo); err != nil {
			log.Fatalf("List failed: %v", err)
		}

	case "serve":
		serve(appConfig, feedRepo, entryRepo)

	default:
		log.Printf("Unknown command: %s", command)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: blog-replay [options] <command>

Commands:
  scrape <URL>   load a blog's archive into the local DB for later replay
  scrape-all     scrape every blog in the blogs file
  generate [key] move one pending entry per feed into its rendered Atom file
  list           show known feeds and their pending-entry counts
  serve          serve rendered feeds over HTTP

Run with --help for options.`)
}

func requireFeedURLBase(appConfig *cfg.Cfg) {
	if appConfig.FeedURLBase == "" {
		log.Fatal("FEED_URL_BASE (--feed-url-base) is required for scraping")
	}
}

func scrape(client *blog.Client, entryRepo database.EntryRepository, blogURL string) error {
	log.Printf("Detecting blog type for %s...", blogURL)
	src, err := blog.Detect(client, blogURL)
	if err != nil {
		return err
	}

	fd := src.FeedData()
	log.Printf("Scraping %q (key: %s)", fd.Title, fd.Key)

	if observable, ok := src.(interface{ SetProgress(blog.Progress) }); ok {
		observable.SetProgress(&logProgress{})
	}

	count, err := entryRepo.Ingest(fd, src.Entries())
	if err != nil {
		return err
	}

	log.Printf("Ingested %d entries for feed %s", count, fd.Key)
	return nil
}

func generate(feedRepo database.FeedRepository, materializer *feed.Materializer, rest []string) error {
	var keys []string
	if len(rest) > 0 {
		keys = rest
	} else {
		feeds, err := feedRepo.ListFeeds()
		if err != nil {
			return err
		}
		for _, f := range feeds {
			keys = append(keys, f.Key)
		}
	}

	for _, key := range keys {
		published, err := materializer.Run(key)
		if err != nil {
			return err
		}
		if !published {
			log.Printf("Feed %s has no pending entries", key)
		}
	}
	return nil
}

func listFeeds(feedRepo database.FeedRepository, entryRepo database.EntryRepository) error {
	feeds, err := feedRepo.ListFeeds()
	if err != nil {
		return err
	}

	for _, f := range feeds {
		pending, err := entryRepo.CountPending(f.Key)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %-40s %s (%d pending)\n", f.Key, f.Title, f.URL, pending)
	}
	return nil
}

func serve(appConfig *cfg.Cfg, feedRepo database.FeedRepository, entryRepo database.EntryRepository) {
	handler := api.NewHandler(feedRepo, entryRepo)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Serving feeds on port %s", appConfig.Port)
		log.Printf("  Feed:        http://localhost:%s/feeds/<key>", appConfig.Port)
		log.Printf("  List feeds:  http://localhost:%s/api/feeds", appConfig.Port)
		log.Printf("  Health:      http://localhost:%s/health", appConfig.Port)
		log.Printf("  Metrics:     http://localhost:%s/metrics", appConfig.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}
}

// logProgress prints scraping progress to the standard logger.
type logProgress struct {
	label string
	total int
	count int
}

func (p *logProgress) Start(label string, total int) {
	p.label = label
	p.total = total
	p.count = 0
	if total > 0 {
		log.Printf("  %s: expecting %d items", label, total)
	}
}

func (p *logProgress) Add(n int) {
	p.count += n
	if p.total > 0 {
		log.Printf("  %s: %d/%d", p.label, p.count, p.total)
	} else {
		log.Printf("  %s: %d", p.label, p.count)
	}
}

func (p *logProgress) Done() {
	log.Printf("  %s: done (%d items)", p.label, p.count)
}
