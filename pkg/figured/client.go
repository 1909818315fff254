package figured

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ClientConfig represents the configuration for the Figured API client.
type ClientConfig struct {
	APIURL      string
	FarmID      string
	AccessToken string
	Timeout     time.Duration // Default: 30 seconds
}

// Client is a Figured farm API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	farmID      string
	accessToken string
}

// NewClient creates a new Figured API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     config.APIURL,
		farmID:      config.FarmID,
		accessToken: config.AccessToken,
	}
}

// SetAccessToken sets the access token for API requests.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// get performs an authenticated GET against a farm-scoped path and decodes
// the JSON response into out.
func (c *Client) get(path string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/farms/%s/%s", c.baseURL, c.farmID, path)
	if len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// FetchAccounts fetches the farm's full account list. The endpoint returns a
// mapping of arbitrary keys to account objects.
func (c *Client) FetchAccounts() (map[string]Account, error) {
	var accounts map[string]Account
	if err := c.get("accounts", nil, &accounts); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

// FetchAccount fetches a single account by its UUID.
func (c *Client) FetchAccount(uuid string) (*Account, error) {
	var account Account
	if err := c.get(fmt.Sprintf("account/%s", uuid), nil, &account); err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", uuid, err)
	}
	return &account, nil
}

// FetchAccountMappings fetches the transition-to-account mappings of a
// livestock tracker.
func (c *Client) FetchAccountMappings(trackerID string) ([]AccountMapping, error) {
	var mappings []AccountMapping
	if err := c.get(fmt.Sprintf("livestock/%s/account_mappings", trackerID), nil, &mappings); err != nil {
		return nil, fmt.Errorf("failed to fetch account mappings for tracker %s: %w", trackerID, err)
	}
	return mappings, nil
}

// FetchAllTrackers fetches every livestock tracker. The endpoint is paged, so
// the total is probed first and the list refetched in one page.
func (c *Client) FetchAllTrackers() ([]Tracker, error) {
	total, err := c.fetchTrackersPage(1)
	if err != nil {
		return nil, err
	}
	if total.Meta.Total == 0 {
		return nil, nil
	}

	page, err := c.fetchTrackersPage(total.Meta.Total)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) fetchTrackersPage(perPage int) (*trackersResponse, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))

	var resp trackersResponse
	if err := c.get("livestock/trackers", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch livestock trackers: %w", err)
	}
	return &resp, nil
}

// FetchAllLivestockTransactions fetches every livestock transaction event,
// probing the total first like FetchAllTrackers.
func (c *Client) FetchAllLivestockTransactions() ([]LivestockEvent, error) {
	total, err := c.fetchEventsPage(1)
	if err != nil {
		return nil, err
	}
	if total.Meta.Total == 0 {
		return nil, nil
	}

	page, err := c.fetchEventsPage(total.Meta.Total)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) fetchEventsPage(perPage int) (*eventsResponse, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))

	var resp eventsResponse
	if err := c.get("livestock/transactions", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch livestock transactions: %w", err)
	}
	return &resp, nil
}

// FetchAllInvoices fetches all invoices with page-based pagination.
func (c *Client) FetchAllInvoices() ([]Invoice, error) {
	var allInvoices []Invoice
	page := 1
	perPage := 100

	for {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))

		var resp invoicesResponse
		if err := c.get("invoices", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch invoices (page=%d): %w", page, err)
		}

		if len(resp.Data) == 0 {
			break
		}

		allInvoices = append(allInvoices, resp.Data...)

		if len(resp.Data) < perPage {
			break
		}

		page++
	}

	return allInvoices, nil
}

// parseError parses an error response from the farm API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("figured API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("figured API error (status %d): %s", resp.StatusCode, string(body))
	}

	if errResp.ErrorDescription != "" {
		return fmt.Errorf("figured API error: %s - %s", errResp.Error, errResp.ErrorDescription)
	}
	if errResp.Message != "" {
		return fmt.Errorf("figured API error (status %d): %s", resp.StatusCode, errResp.Message)
	}

	return fmt.Errorf("figured API error (status %d): %s", resp.StatusCode, errResp.Error)
}
