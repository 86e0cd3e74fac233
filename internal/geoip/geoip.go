package geoip

import (
	"log/slog"
	"net/netip"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

// Resolver maps client addresses to ISO country codes. A Resolver without a
// database answers every lookup with an empty code.
type Resolver struct {
	db *maxminddb.Reader
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	RegisteredCountry struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"registered_country"`
}

// Open loads a GeoLite2/GeoIP2 country or city database. A missing or broken
// file disables lookups instead of failing start-up.
func Open(path string) *Resolver {
	if path == "" {
		return &Resolver{}
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		slog.Warn("geoip: failed to open database, country lookup disabled", "path", path, "error", err)
		return &Resolver{}
	}
	slog.Info("geoip: loaded database", "path", path, "type", db.Metadata.DatabaseType)
	return &Resolver{db: db}
}

func (r *Resolver) Enabled() bool {
	return r != nil && r.db != nil
}

// Country returns the ISO 3166-1 alpha-2 code for addr, falling back to the
// registered country when the database has no location for it.
func (r *Resolver) Country(addr string) string {
	if !r.Enabled() {
		return ""
	}
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil || ip.IsLoopback() || ip.IsPrivate() {
		return ""
	}

	var rec countryRecord
	if err := r.db.Lookup(ip.AsSlice(), &rec); err != nil {
		slog.Debug("geoip: lookup failed", "error", err)
		return ""
	}
	if rec.Country.ISOCode != "" {
		return rec.Country.ISOCode
	}
	return rec.RegisteredCountry.ISOCode
}

func (r *Resolver) Close() error {
	if r.Enabled() {
		return r.db.Close()
	}
	return nil
}
