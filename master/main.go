// Command master is the directory dynamic AI hosts register with so
// observers can find them.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/automoto/dynamicai/internal/logging"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	ttl := flag.Duration("ttl", 90*time.Second, "Server TTL before expiry")
	flag.Parse()

	log := logging.NewFromEnv().With(logging.String("component", "master"))

	reg := NewRegistry(*ttl, log)
	reg.Start()
	defer reg.Stop()

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting", logging.String("addr", addr), logging.Duration("ttl", *ttl))
	if err := http.ListenAndServe(addr, newMux(reg, log)); err != nil {
		log.Error("fatal", logging.Err(err))
		os.Exit(1)
	}
}
