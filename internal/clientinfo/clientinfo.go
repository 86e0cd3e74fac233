package clientinfo

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/blake2b"
)

// Info describes who uploaded a video without keeping the raw address.
type Info struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Country string `json:"country,omitempty"`
	IPHash  string `json:"-"`
}

type CountryResolver interface {
	Country(addr string) string
}

type Describer struct {
	geo CountryResolver
	key []byte
}

// NewDescriber hashes addresses with key. Keys longer than 64 bytes are
// truncated to fit BLAKE2b.
func NewDescriber(geo CountryResolver, key []byte) *Describer {
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	return &Describer{geo: geo, key: key}
}

func (d *Describer) Describe(r *http.Request) Info {
	ip := ClientIP(r)
	browser, os := ParseUserAgent(r.UserAgent())
	info := Info{
		Browser: browser,
		OS:      os,
		IPHash:  d.HashIP(ip),
	}
	if d.geo != nil && ip != "" {
		info.Country = d.geo.Country(ip)
	}
	return info
}

// HashIP returns a hex BLAKE2b-256 MAC of ip, or "" for an empty address.
func (d *Describer) HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	h, err := blake2b.New256(d.key)
	if err != nil {
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// ParseUserAgent returns the browser name and operating system name.
func ParseUserAgent(ua string) (browser, os string) {
	if strings.TrimSpace(ua) == "" {
		return "", ""
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return "Bot", ""
	}
	name, _ := parsed.Browser()
	return name, parsed.OSInfo().Name
}

// ClientIP returns the host part of r.RemoteAddr. When the server trusts a
// reverse proxy, chi's RealIP middleware has already replaced RemoteAddr with
// the forwarded address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
