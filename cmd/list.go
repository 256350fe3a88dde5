package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/portless-rs/portless/internal/registry"
	"github.com/portless-rs/portless/internal/statedir"
)

// List prints every route currently recorded in the registry, including
// ones whose PID has since died (LoadRaw does no liveness filtering) so
// a user troubleshooting a stuck entry can see it.
func List() error {
	dir, _ := statedir.Discover()
	store := registry.NewStore(dir)

	routes, err := store.LoadRaw()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if len(routes) == 0 {
		fmt.Println("No active apps.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOSTNAME\tPORT\tPID\tALIVE")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", r.Hostname, r.Port, r.PID, registry.IsAlive(r.PID))
	}
	return w.Flush()
}
