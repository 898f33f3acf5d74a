package intra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.intra.42.fr"

// BaseURL returns the intra API root, overridable for staging setups.
func BaseURL() string {
	if v := os.Getenv("INTRA_BASE_URL"); v != "" {
		return v
	}
	return defaultBaseURL
}

type ImageVersions struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
}

type Image struct {
	Link     string        `json:"link"`
	Versions ImageVersions `json:"versions"`
}

type Campus struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Cursus struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CursusUser struct {
	Grade    *string `json:"grade"`
	Level    float64 `json:"level"`
	CursusID int     `json:"cursus_id"`
	Cursus   Cursus  `json:"cursus"`
}

type ProjectRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ProjectUser struct {
	ID        int        `json:"id"`
	FinalMark *int       `json:"final_mark"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	MarkedAt  *time.Time `json:"marked_at"`
	Project   ProjectRef `json:"project"`
}

type Quest struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type QuestUser struct {
	ID          int        `json:"id"`
	ValidatedAt *time.Time `json:"validated_at"`
	Quest       *Quest     `json:"quest"`
}

// Profile is the subset of the /v2/me payload the dashboard mirrors.
type Profile struct {
	ID              int             `json:"id"`
	Login           string          `json:"login"`
	Email           string          `json:"email"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	DisplayName     string          `json:"displayname"`
	Image           Image           `json:"image"`
	Wallet          int             `json:"wallet"`
	CorrectionPoint int             `json:"correction_point"`
	Campus          []Campus        `json:"campus"`
	CursusUsers     []CursusUser    `json:"cursus_users"`
	ProjectsUsers   []ProjectUser   `json:"projects_users"`
	Achievements    json.RawMessage `json:"achievements"`
	Coalitions      json.RawMessage `json:"coalitions"`
}

// Client talks to the intra API with a user's OAuth token. The oauth2
// transport refreshes the token transparently when it has expired.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) *Client {
	return &Client{baseURL: BaseURL(), http: conf.Client(ctx, token)}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("intra: GET %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Me fetches the authenticated student's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/v2/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// QuestsUsers fetches the student's quest history, used to derive the circle.
func (c *Client) QuestsUsers(ctx context.Context, intraID int) ([]QuestUser, error) {
	query := url.Values{"per_page": {"100"}}

	var quests []QuestUser
	if err := c.get(ctx, fmt.Sprintf("/v2/users/%d/quests_users", intraID), query, &quests); err != nil {
		return nil, err
	}
	return quests, nil
}
