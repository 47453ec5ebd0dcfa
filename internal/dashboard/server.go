// Package dashboard serves a small JSON status API over HTTP: active raid
// sessions, resolution history, and a health probe.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/fireteam/internal/history"
	"github.com/zulandar/fireteam/internal/raid"
)

// RaidSource provides point-in-time copies of the active sessions.
type RaidSource interface {
	Snapshots() []raid.Snapshot
}

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Raids   RaidSource
	History *history.Store // optional; /api/history 404s without it
	Port    int
	Out     io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Raids == nil {
		return fmt.Errorf("dashboard: raid source is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := Router(opts.Raids, opts.History)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: serve: %w", err)
	}
	return nil
}

// Router builds the Gin router with all dashboard routes registered.
func Router(raids RaidSource, hist *history.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/raids", handleRaids(raids))
	router.GET("/api/history", handleHistory(hist))
	router.GET("/api/history/outcomes", handleOutcomes(hist))

	return router
}

func handleRaids(raids RaidSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps := raids.Snapshots()
		if snaps == nil {
			snaps = []raid.Snapshot{}
		}
		c.JSON(http.StatusOK, gin.H{"count": len(snaps), "raids": snaps})
	}
}

func handleHistory(hist *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "history storage not configured"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		recs, err := hist.Recent(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if recs == nil {
			recs = []history.Record{}
		}
		c.JSON(http.StatusOK, gin.H{"count": len(recs), "records": recs})
	}
}

func handleOutcomes(hist *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hist == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "history storage not configured"})
			return
		}
		counts, err := hist.OutcomeCounts()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"outcomes": counts})
	}
}
