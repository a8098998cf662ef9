package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"linksnap/internal/config"

	"github.com/oschwald/geoip2-golang"
)

// Country labels substituted when no lookup is performed or possible.
const (
	CountryLocal   = "Local"
	CountryUnknown = "Unknown"
)

// GeoService resolves a client IP to a country label. Private and loopback
// addresses short-circuit to "Local". Public addresses go through a local
// MaxMind database when one is configured, otherwise an external HTTP API
// bounded by a hard timeout. Lookups are best-effort: any failure yields
// "Unknown" and never an error.
type GeoService struct {
	cfg       config.Config
	logger    *slog.Logger
	client    *http.Client
	geoReader *geoip2.Reader
	geoLock   sync.RWMutex
}

func NewGeoService(cfg config.Config, logger *slog.Logger) *GeoService {
	return &GeoService{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.GeoTimeout()},
	}
}

// Init opens the local GeoIP database if one is present. Safe to skip; the
// HTTP fallback covers lookups without it.
func (s *GeoService) Init() {
	if s.cfg.GeoIPDBPath == "" {
		return
	}
	if _, err := os.Stat(s.cfg.GeoIPDBPath); err != nil {
		s.logger.Info("GeoIP: no local database, using HTTP lookups", "path", s.cfg.GeoIPDBPath)
		return
	}

	reader, err := geoip2.Open(s.cfg.GeoIPDBPath)
	if err != nil {
		s.logger.Error("GeoIP: failed to open database", "path", s.cfg.GeoIPDBPath, "error", err)
		return
	}

	s.geoLock.Lock()
	s.geoReader = reader
	s.geoLock.Unlock()

	s.logger.Info("GeoIP: loaded local database", "epoch", reader.Metadata().BuildEpoch)
}

func (s *GeoService) Close() {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()
	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}
}

func (s *GeoService) Country(ctx context.Context, ipStr string) string {
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil || isPrivateIP(ip) {
		return CountryLocal
	}

	s.geoLock.RLock()
	reader := s.geoReader
	s.geoLock.RUnlock()

	if reader != nil {
		if country := s.lookupLocal(reader, ip); country != "" {
			return country
		}
	}

	return s.lookupHTTP(ctx, ip.String())
}

func (s *GeoService) lookupLocal(reader *geoip2.Reader, ip net.IP) string {
	record, err := reader.Country(ip)
	if err != nil {
		s.logger.Warn("GeoIP: local lookup failed", "ip", ip.String(), "error", err)
		return ""
	}
	if name, ok := record.Country.Names["en"]; ok && name != "" {
		return name
	}
	return record.Country.IsoCode
}

func (s *GeoService) lookupHTTP(ctx context.Context, ip string) string {
	if s.cfg.GeoAPIURL == "" {
		return CountryUnknown
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GeoTimeout())
	defer cancel()

	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.GeoAPIURL, "/"), ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CountryUnknown
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("GeoIP: http lookup failed", "ip", ip, "error", err)
		return CountryUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CountryUnknown
	}

	var out struct {
		Success *bool  `json:"success"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CountryUnknown
	}
	if out.Success != nil && !*out.Success {
		return CountryUnknown
	}
	if out.Country == "" {
		return CountryUnknown
	}
	return out.Country
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
