// rodeo-stub runs the in-process backend stub on a real listener, for
// developing client code without a platform deployment. It issues and
// enforces CSRF tokens, counts login attempts (three failures lock the
// account for five minutes) and serves representative resources.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodeo-sec/rodeo-go/pkg/rodeotest"
	"github.com/rodeo-sec/rodeo-go/pkg/stream"
)

func main() {
	var (
		listen         string
		lockoutSeconds int
		maxAttempts    int
		alertInterval  time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "rodeo-stub",
		Short: "Offline RODEO backend stub",
		Long: `Run a local stand-in for the RODEO backend.

One account exists: analyst1 / secret99. Point the client at the
stub with RODEO_BASE_URL.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := rodeotest.NewServer(rodeotest.Config{
				MaxAttempts:    maxAttempts,
				LockoutSeconds: lockoutSeconds,
			})

			if alertInterval > 0 {
				go emitAlerts(srv, alertInterval)
			}

			fmt.Printf("rodeo-stub listening on %s\n", listen)
			fmt.Printf("  account: analyst1 / secret99\n")
			return http.ListenAndServe(listen, srv)
		},
	}

	rootCmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:8000", "Listen address")
	rootCmd.Flags().IntVar(&maxAttempts, "max-attempts", rodeotest.DefaultMaxAttempts, "Failed logins before lockout")
	rootCmd.Flags().IntVar(&lockoutSeconds, "lockout-seconds", rodeotest.DefaultLockoutSeconds, "Lockout duration in seconds")
	rootCmd.Flags().DurationVar(&alertInterval, "alert-interval", 0, "Emit a synthetic alert on this interval (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// emitAlerts pushes synthetic alerts so feed consumers have something
// to render.
func emitAlerts(srv *rodeotest.Server, interval time.Duration) {
	severities := []string{"low", "medium", "high", "critical"}
	for i := 0; ; i++ {
		time.Sleep(interval)
		srv.PushAlert(stream.Alert{
			ID:        fmt.Sprintf("al-%d", i+1),
			Severity:  severities[i%len(severities)],
			Title:     "Synthetic detection",
			Timestamp: time.Now().UTC(),
		})
	}
}
