// Package license gates job creation behind Lemon Squeezy license keys.
// Verdicts are cached by key hash so repeat scrapes don't hit the
// licensing API, and a cached verdict stands in when the API is down.
package license

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

const instanceName = "reperio-server"

// Service implements the LicenseValidator interface against the Lemon
// Squeezy licensing API
type Service struct {
	config     *common.LicenseConfig
	cache      interfaces.LicenseCacheStorage
	logger     arbor.ILogger
	httpClient *http.Client
}

// NewService creates a new license validation service
func NewService(config *common.LicenseConfig, cache interfaces.LicenseCacheStorage, logger arbor.ILogger) interfaces.LicenseValidator {
	return &Service{
		config: config,
		cache:  cache,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout),
		},
	}
}

// Enabled reports whether license enforcement is configured. All three
// settings are required; a partially configured gate stays open rather
// than locking every user out.
func (s *Service) Enabled() bool {
	return s.config.APIKey != "" && s.config.StoreID != "" && s.config.CheckoutURL != ""
}

// CheckoutURL returns the purchase URL surfaced to unlicensed users
func (s *Service) CheckoutURL() string {
	return s.config.CheckoutURL
}

// Validate checks a license key, preferring a fresh cached verdict. On a
// cache miss it activates the key (first use) and falls back to
// validation when the key is already activated. If the licensing API is
// unreachable, any cached verdict is honored regardless of age.
func (s *Service) Validate(ctx context.Context, licenseKey string) (bool, string) {
	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return false, "license key is required"
	}

	keyHash := hashKey(licenseKey)

	entry, err := s.cache.GetLicenseEntry(ctx, keyHash)
	if err != nil {
		s.logger.Warn().Err(err).Msg("License cache lookup failed")
	}
	if entry != nil && time.Since(entry.LastChecked) < time.Duration(s.config.CacheTTL) {
		if entry.Valid {
			return true, ""
		}
		return false, "license key is not valid"
	}

	valid, reason, apiErr := s.checkRemote(ctx, licenseKey)
	if apiErr != nil {
		// Grace period: an API outage must not lock out paying users
		if entry != nil {
			s.logger.Warn().Err(apiErr).Msg("Licensing API unreachable, honoring cached verdict")
			if entry.Valid {
				return true, ""
			}
			return false, "license key is not valid"
		}
		s.logger.Error().Err(apiErr).Msg("Licensing API unreachable and no cached verdict")
		return false, "license validation is temporarily unavailable, please try again"
	}

	if err := s.cache.PutLicenseEntry(ctx, &models.LicenseCacheEntry{
		KeyHash:     keyHash,
		Valid:       valid,
		LastChecked: time.Now(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache license verdict")
	}

	return valid, reason
}

// checkRemote tries activation first, then validation for keys that are
// already activated. The returned error means the API could not be
// consulted at all; a definitive invalid verdict is not an error.
func (s *Service) checkRemote(ctx context.Context, licenseKey string) (bool, string, error) {
	resp, err := s.post(ctx, "/v1/licenses/activate", map[string]string{
		"license_key":   licenseKey,
		"instance_name": instanceName,
	})
	if err != nil {
		return false, "", err
	}

	if resp.Activated && s.storeMatches(resp) {
		return true, "", nil
	}

	// Already-activated keys fail activation but pass validation
	resp, err = s.post(ctx, "/v1/licenses/validate", map[string]string{
		"license_key": licenseKey,
	})
	if err != nil {
		return false, "", err
	}

	if resp.Valid && s.storeMatches(resp) {
		return true, "", nil
	}
	if resp.Valid {
		return false, "license key belongs to a different product", nil
	}
	if resp.Error != "" {
		return false, resp.Error, nil
	}
	return false, "license key is not valid", nil
}

// storeMatches rejects only an explicit store mismatch. A response
// without store metadata passes; the verdict fields already vouched for
// the key.
func (s *Service) storeMatches(resp *apiResponse) bool {
	if resp.Meta == nil || resp.Meta.StoreID == 0 {
		return true
	}
	return strconv.Itoa(resp.Meta.StoreID) == s.config.StoreID
}

type apiResponse struct {
	Activated bool   `json:"activated"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error"`
	Meta      *struct {
		StoreID   int `json:"store_id"`
		ProductID int `json:"product_id"`
	} `json:"meta"`
}

func (s *Service) post(ctx context.Context, path string, form map[string]string) (*apiResponse, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to encode license request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build license request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("licensing API request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("licensing API returned status %d", httpResp.StatusCode)
	}

	// 4xx responses still carry a JSON verdict (invalid key, already
	// activated) and must be decoded, not treated as outages.
	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode licensing API response: %w", err)
	}
	return &resp, nil
}

func hashKey(licenseKey string) string {
	sum := sha256.Sum256([]byte(licenseKey))
	return hex.EncodeToString(sum[:])
}
