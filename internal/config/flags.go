package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a remote sync API address in format [host]:[port]
//	-d cache database DSN
//	-driver cache database driver (sqlite3 or pgx)
//	-c/-config json file path with configs
//	-namespace key namespace for cached entities
//	-message-days message history window for the initial bulk import
//	-include-preferences fetch subject preferences during initial sync
//	-auto-resolve automatically resolve eligible conflicts
//	-auto-resolve-strategy strategy used by the auto-resolver
//	-request-timeout outbound request timeout (e.g., "30s", "1m")
//	-sync-interval periodic sync job interval (e.g., "5m")
func ParseFlags() *StructuredConfig {
	var adapterAddress NetAddress
	var databaseDSN string
	var databaseDriver string
	var jsonConfigPath string
	var namespace string
	var messageDays int
	var includePreferences bool
	var autoResolve bool
	var autoResolveStrategy string
	var requestTimeout time.Duration
	var syncInterval time.Duration

	flag.Var(&adapterAddress, "a", "Remote sync API address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Cache database DSN")
	flag.StringVar(&databaseDriver, "driver", "", "Cache database driver (sqlite3 or pgx)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&namespace, "namespace", "", "Key namespace for cached entities")
	flag.IntVar(&messageDays, "message-days", 0, "Message history window in days")
	flag.BoolVar(&includePreferences, "include-preferences", false, "Fetch subject preferences during initial sync")
	flag.BoolVar(&autoResolve, "auto-resolve", false, "Automatically resolve eligible conflicts")
	flag.StringVar(&autoResolveStrategy, "auto-resolve-strategy", "", "Strategy used by the auto-resolver")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Outbound request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic sync job interval (e.g., 5m)")

	flag.Parse()

	return &StructuredConfig{
		Sync: Sync{
			Namespace:           namespace,
			MessageHistoryDays:  messageDays,
			IncludePreferences:  includePreferences,
			AutoResolve:         autoResolve,
			AutoResolveStrategy: autoResolveStrategy,
		},
		Adapter: Adapter{
			HTTPAddress:    adapterAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{
				Driver: databaseDriver,
				DSN:    databaseDSN,
			},
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
