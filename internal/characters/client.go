package characters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
	"github.com/wuwenbin0122/guild-recruit/internal/review"
	"github.com/wuwenbin0122/guild-recruit/internal/utils"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	// refresh the access token slightly before the provider expires it
	tokenExpirySkew = 30 * time.Second
	maxBodyBytes    = 4 << 20
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type apiError struct {
	Code   int    `json:"code,omitempty"`
	Type   string `json:"type,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Client talks to a Battle.net style profile API using client credentials.
type Client struct {
	cfg  utils.CharacterAPIConfig
	http httpDoer
	now  func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg utils.CharacterAPIConfig) *Client {
	return newClientWithDoer(cfg, newHTTPClientWithTimeout(cfg.Timeout))
}

func newClientWithDoer(cfg utils.CharacterAPIConfig, doer httpDoer) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: doer,
		now:  time.Now,
	}
}

// newHTTPClientWithTimeout falls back to the package default when d is non-positive.
func newHTTPClientWithTimeout(d time.Duration) *http.Client {
	if d <= 0 {
		d = defaultHTTPTimeout
	}
	return &http.Client{Timeout: d}
}

func (c *Client) Lookup(ctx context.Context, name, realm string) (*models.CharacterProfile, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(realm) == "" {
		return nil, fmt.Errorf("%w: name and realm are required", ErrCharacterNotFound)
	}

	base := fmt.Sprintf("/profile/wow/character/%s/%s", url.PathEscape(slug(realm)), url.PathEscape(slug(name)))

	summary, err := c.get(ctx, base)
	if err != nil {
		return nil, err
	}
	equipment, err := c.get(ctx, base+"/equipment")
	if err != nil {
		return nil, err
	}
	raids, err := c.get(ctx, base+"/encounters/raids")
	if err != nil {
		return nil, err
	}

	profile := parseProfile(summary, equipment, raids)
	if profile.Name == "" {
		profile.Name = name
	}
	if profile.Realm == "" {
		profile.Realm = realm
	}
	profile.Raw = fmt.Sprintf(`{"profile":%s,"equipment":%s,"raids":%s}`, summary, equipment, raids)

	return profile, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("namespace", c.cfg.Namespace)
	query.Set("locale", c.cfg.Locale)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("characters: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("characters: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("characters: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, path)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, buildAPIError(resp.StatusCode, body)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("characters: malformed response for %s", path)
	}

	return body, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("characters: build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("characters: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("characters: read token response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", buildAPIError(resp.StatusCode, body)
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("characters: token response missing access_token")
	}
	expiresIn := time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second

	c.token = token
	c.tokenExpiry = c.now().Add(expiresIn - tokenExpirySkew)

	return token, nil
}

func parseProfile(summary, equipment, raids []byte) *models.CharacterProfile {
	profile := &models.CharacterProfile{
		Name:      gjson.GetBytes(summary, "name").String(),
		Realm:     gjson.GetBytes(summary, "realm.name").String(),
		Class:     gjson.GetBytes(summary, "character_class.name").String(),
		Level:     int(gjson.GetBytes(summary, "level").Int()),
		ItemLevel: gjson.GetBytes(summary, "equipped_item_level").Float(),
		Faction:   gjson.GetBytes(summary, "faction.name").String(),
	}

	var total float64
	gjson.GetBytes(equipment, "equipped_items").ForEach(func(_, item gjson.Result) bool {
		eq := models.Equipment{
			ID:        item.Get("item.id").Int(),
			Name:      item.Get("name").String(),
			Quality:   item.Get("quality.name").String(),
			ItemLevel: item.Get("level.value").Float(),
			Slot:      item.Get("slot.name").String(),
		}
		total += eq.ItemLevel
		profile.Equipment = append(profile.Equipment, eq)
		return true
	})
	if profile.ItemLevel == 0 && len(profile.Equipment) > 0 {
		profile.ItemLevel = total / float64(len(profile.Equipment))
	}

	gjson.GetBytes(raids, "expansions.#.instances|@flatten").ForEach(func(_, instance gjson.Result) bool {
		profile.RaidProgress = append(profile.RaidProgress, parseInstance(instance))
		return true
	})
	profile.ProgressPercent = review.ProgressPercent(profile.RaidProgress)

	return profile
}

// parseInstance keeps the difficulty with the most kills. The provider only
// lists killed encounters, so the remainder up to total_count is padded with
// placeholders.
func parseInstance(instance gjson.Result) models.RaidTier {
	tier := models.RaidTier{
		ID:   instance.Get("instance.id").Int(),
		Name: instance.Get("instance.name").String(),
	}

	var best gjson.Result
	instance.Get("modes").ForEach(func(_, mode gjson.Result) bool {
		if !best.Exists() || mode.Get("progress.completed_count").Int() > best.Get("progress.completed_count").Int() {
			best = mode
		}
		return true
	})
	if !best.Exists() {
		return tier
	}

	best.Get("progress.encounters").ForEach(func(_, enc gjson.Result) bool {
		tier.Bosses = append(tier.Bosses, models.Boss{
			ID:     enc.Get("encounter.id").Int(),
			Name:   enc.Get("encounter.name").String(),
			Killed: enc.Get("completed_count").Int() > 0,
		})
		return true
	})

	totalCount := int(best.Get("progress.total_count").Int())
	for i := len(tier.Bosses); i < totalCount; i++ {
		tier.Bosses = append(tier.Bosses, models.Boss{Name: fmt.Sprintf("Encounter %d", i+1)})
	}

	return tier
}

func buildAPIError(statusCode int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && strings.TrimSpace(apiErr.Detail) != "" {
		return fmt.Errorf("characters: api error (%d, %s): %s", statusCode, apiErr.Type, strings.TrimSpace(apiErr.Detail))
	}

	snippet := strings.TrimSpace(string(body))
	if snippet == "" {
		snippet = http.StatusText(statusCode)
	}
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}

	return fmt.Errorf("characters: api error (%d): %s", statusCode, snippet)
}
